package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTrace(ctx))
	assert.Empty(t, GetRequestID(ctx))

	trace := &TraceContext{TraceID: "t-1", RequestID: "r-1", Origin: OriginHTTP}
	ctx = WithTrace(ctx, trace)

	require.Same(t, trace, GetTrace(ctx))
	assert.Equal(t, "r-1", GetRequestID(ctx))
	assert.Equal(t, []any{"trace_id", "t-1", "request_id", "r-1", "origin", "http"}, trace.Fields())
}

func TestNewTraceContext(t *testing.T) {
	a := NewTraceContext(OriginWorker)
	b := NewTraceContext(OriginWorker)

	assert.Equal(t, OriginWorker, a.Origin)
	assert.Equal(t, a.TraceID, a.RequestID)
	assert.NotEqual(t, a.TraceID, b.TraceID)
}
