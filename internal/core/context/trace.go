// Package context carries the ids that correlate the log lines of one HTTP
// request or one background run.
package context

import (
	"context"

	"github.com/google/uuid"
)

// Origins of a traced unit of work.
const (
	OriginHTTP   = "http"
	OriginWorker = "worker"
)

// TraceContext identifies one unit of work.
type TraceContext struct {
	TraceID   string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id from context or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext starts a trace for work that did not arrive through
// HTTP. Trace and request id are the same value.
func NewTraceContext(origin string) *TraceContext {
	runID := uuid.NewString()
	return &TraceContext{
		TraceID:   runID,
		RequestID: runID,
		Origin:    origin,
	}
}

// Fields returns the trace as logger key/value pairs.
func (t *TraceContext) Fields() []any {
	return []any{
		"trace_id", t.TraceID,
		"request_id", t.RequestID,
		"origin", t.Origin,
	}
}
