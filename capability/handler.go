package capability

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the outcome of a capability execution.
// Failures are reported to the model as data, never as Go errors.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success returns a successful result carrying data.
func Success(data any) Result {
	return Result{Success: true, Data: data}
}

// Failure returns a failed result with the given reason.
func Failure(reason string) Result {
	return Result{Error: reason}
}

// Failuref returns a failed result with a formatted reason.
func Failuref(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// String returns the JSON encoding of the result, as sent back to the model.
func (r Result) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Failuref("encode result: %v", err))
	}
	return string(b)
}

// Handler executes a capability with the raw JSON arguments produced by the model.
type Handler interface {
	Handle(context.Context, string) Result
}

// HandleFunc adapts a plain function to a Handler, similar to http.HandlerFunc.
type HandleFunc func(context.Context, string) Result

// Handle calls f(ctx, args).
func (f HandleFunc) Handle(ctx context.Context, args string) Result {
	return f(ctx, args)
}
