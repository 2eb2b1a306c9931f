package capability

import "context"

// Call describes the capability invocation in progress.
type Call struct {
	ID   string
	Name string
}

// ctxCallKey is the context key for Call.
type ctxCallKey struct{}

// NewCallContext returns a new context carrying the given Call.
func NewCallContext(ctx context.Context, call Call) context.Context {
	return context.WithValue(ctx, ctxCallKey{}, call)
}

// FromCallContext retrieves the Call from the context, if present.
func FromCallContext(ctx context.Context) (Call, bool) {
	call, ok := ctx.Value(ctxCallKey{}).(Call)
	return call, ok
}
