// Package middleware provides ModelProvider decorators.
package middleware

import (
	"context"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/kit/retry"
)

type retryModel struct {
	next     aikit.ModelProvider
	attempts int
	opts     []retry.Option
}

// Retry returns a ModelProvider that retries failed provider calls.
//
// attempts is the total number of calls, including the first one. Backoff and
// the set of retryable errors are configured with retry.Option.
//
// A stream is retried only while it has not yielded anything, so partial
// output is never replayed. Context cancellation stops retrying.
func Retry(next aikit.ModelProvider, attempts int, opts ...retry.Option) aikit.ModelProvider {
	return &retryModel{next: next, attempts: attempts, opts: opts}
}

func (m *retryModel) Name() string {
	return m.next.Name()
}

func (m *retryModel) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	var res *aikit.ModelResponse
	err := retry.New(m.attempts, m.opts...).Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = m.next.Generate(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *retryModel) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(yield func(*aikit.ModelResponse, error) bool) {
		var started, stopped bool
		err := retry.New(m.attempts, m.opts...).Do(ctx, func(ctx context.Context) error {
			for res, err := range m.next.NewStream(ctx, req) {
				if err != nil {
					if started {
						// Partial output was delivered; surface the error as is.
						yield(nil, err)
						stopped = true
						return nil
					}
					return err
				}
				started = true
				if !yield(res, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}
