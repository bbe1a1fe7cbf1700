package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "foodprod/internal/core/context"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContext_AddsTraceFields(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), log)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-9", RequestID: "r-9", Origin: appctx.OriginWorker})

	Info(ctx, "stock movement recorded", "stock_type", "INGREDIENT")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-9", fields["trace_id"])
	assert.Equal(t, "r-9", fields["request_id"])
	assert.Equal(t, "worker", fields["origin"])
	assert.Equal(t, "INGREDIENT", fields["stock_type"])
}

func TestFromContext_WithoutTrace(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), log)

	Debug(ctx, "dropped below level")
	Warn(ctx, "unrecognized unit", "unit", "Tbsp")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.NotContains(t, entry.ContextMap(), "trace_id")
}

func TestWithComponent(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	log.WithComponent("reconcile-worker").Infow("reconciliation finished")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "reconcile-worker", logs.All()[0].ContextMap()["component"])
}
