package llmcall

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying the id of the request that
// triggered model calls, so recorded calls can be grouped.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
