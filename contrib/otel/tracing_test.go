package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/go-kratos/aikit/internal/fake"
	"github.com/go-kratos/aikit/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, TraceOption) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, WithTracerProvider(tp)
}

func TestModelGenerate(t *testing.T) {
	sr, opt := newRecorder()
	m := Model(fake.NewModel("gemini-2.0-flash-lite", fake.Script(fake.Text("hi"))), opt, WithSystem("gemini"))

	res, err := m.Generate(context.Background(), &aikit.ModelRequest{Messages: []*aikit.Message{aikit.UserMessage("hello")}})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Message.Text())
	assert.Equal(t, "gemini-2.0-flash-lite", m.Name())

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "chat gemini-2.0-flash-lite", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestModelGenerateError(t *testing.T) {
	sr, opt := newRecorder()
	boom := errors.New("boom")
	m := Model(fake.NewModel("m", func(int, *aikit.ModelRequest) (*aikit.Message, error) {
		return nil, boom
	}), opt)

	_, err := m.Generate(context.Background(), &aikit.ModelRequest{})
	assert.ErrorIs(t, err, boom)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestModelStream(t *testing.T) {
	sr, opt := newRecorder()
	m := Model(fake.NewModel("m", fake.Script(fake.Text("one two"))), opt)

	responses, err := stream.Collect(m.NewStream(context.Background(), &aikit.ModelRequest{}))
	require.NoError(t, err)
	assert.Len(t, responses, 3)
	require.Len(t, sr.Ended(), 1)
}

func TestCapabilityMiddleware(t *testing.T) {
	sr, opt := newRecorder()
	h := Capability(opt)(capability.HandleFunc(func(context.Context, string) capability.Result {
		return capability.Failure("No auth token provided")
	}))

	ctx := capability.NewCallContext(context.Background(), capability.Call{ID: "call_1", Name: "swapTokens"})
	res := h.Handle(ctx, "{}")
	assert.False(t, res.Success)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "execute_tool swapTokens", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "No auth token provided", spans[0].Status().Description)
}
