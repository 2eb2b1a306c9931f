package capability

import (
	"context"
	"time"
)

// Middleware wraps a Handler and returns a new Handler with additional behavior.
// It is applied in a chain (outermost first) using ChainMiddlewares.
type Middleware func(Handler) Handler

// ChainMiddlewares composes middlewares into one, applying them in order.
// The first middleware becomes the outermost wrapper.
func ChainMiddlewares(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// Recover converts a panic raised by the wrapped handler into a failure result.
func Recover() Middleware {
	return func(next Handler) Handler {
		return HandleFunc(func(ctx context.Context, args string) (res Result) {
			defer func() {
				if r := recover(); r != nil {
					res = Failuref("capability panicked: %v", r)
				}
			}()
			return next.Handle(ctx, args)
		})
	}
}

// Timeout bounds the execution time of the wrapped handler.
// The handler observes the deadline through its context.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return HandleFunc(func(ctx context.Context, args string) Result {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Handle(ctx, args)
		})
	}
}
