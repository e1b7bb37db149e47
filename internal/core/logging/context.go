package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	moduleKey    contextKey = "module"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithModule adds the name of the running analysis module to the context.
func WithModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, moduleKey, module)
}

// RequestID retrieves the request ID from the context.
// Returns empty string if not present.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Module retrieves the module name from the context.
// Returns empty string if not present.
func Module(ctx context.Context) string {
	if m, ok := ctx.Value(moduleKey).(string); ok {
		return m
	}
	return ""
}
