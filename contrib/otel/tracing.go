package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
)

const (
	traceScope = "aikit"
)

// TraceOption defines options for tracing.
type TraceOption func(*tracing)

// tracing holds the shared tracing configuration.
type tracing struct {
	system string // e.g., "openai", "gemini"
	tracer trace.Tracer
}

// WithSystem sets the AI system name for tracing, e.g., "openai", "gemini".
func WithSystem(system string) TraceOption {
	return func(t *tracing) {
		t.system = system
	}
}

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(t *tracing) {
		t.tracer = tp.Tracer(traceScope)
	}
}

func newTracing(opts ...TraceOption) *tracing {
	t := &tracing{
		system: "_OTHER",
		tracer: otel.GetTracerProvider().Tracer(traceScope),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// model wraps a ModelProvider with a span per request.
type model struct {
	*tracing
	next aikit.ModelProvider
}

// Model returns a ModelProvider that records a span for every model request.
func Model(next aikit.ModelProvider, opts ...TraceOption) aikit.ModelProvider {
	return &model{tracing: newTracing(opts...), next: next}
}

func (m *model) Name() string {
	return m.next.Name()
}

func (m *model) start(ctx context.Context, req *aikit.ModelRequest) (context.Context, trace.Span) {
	ctx, span := m.tracer.Start(ctx, fmt.Sprintf("chat %s", m.next.Name()))
	span.SetAttributes(
		semconv.GenAIOperationNameChat,
		semconv.GenAISystemKey.String(m.system),
		semconv.GenAIRequestModel(m.next.Name()),
		attribute.Int("aikit.request.tools", len(req.Tools)),
		attribute.Bool("aikit.request.structured", req.OutputSchema != nil),
	)
	return ctx, span
}

// Generate records a span around the wrapped Generate call.
func (m *model) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	ctx, span := m.start(ctx, req)
	res, err := m.next.Generate(ctx, req)
	var msg *aikit.Message
	if res != nil {
		msg = res.Message
	}
	end(span, msg, err)
	return res, err
}

// NewStream records a span that ends when the stream is drained or abandoned.
func (m *model) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(yield func(*aikit.ModelResponse, error) bool) {
		ctx, span := m.start(ctx, req)
		var (
			last *aikit.Message
			err  error
		)
		defer func() { end(span, last, err) }()
		for res, streamErr := range m.next.NewStream(ctx, req) {
			if streamErr != nil {
				err = streamErr
			} else if res != nil {
				last = res.Message
			}
			if !yield(res, streamErr) {
				return
			}
		}
	}
}

func end(span trace.Span, msg *aikit.Message, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, codes.Ok.String())
	}
	if msg == nil {
		return
	}
	if msg.FinishReason != "" {
		span.SetAttributes(semconv.GenAIResponseFinishReasons(msg.FinishReason))
	}
	if msg.TokenUsage.PromptTokens > 0 {
		span.SetAttributes(semconv.GenAIUsageInputTokens(int(msg.TokenUsage.PromptTokens)))
	}
	if msg.TokenUsage.CompletionTokens > 0 {
		span.SetAttributes(semconv.GenAIUsageOutputTokens(int(msg.TokenUsage.CompletionTokens)))
	}
}

// Capability returns a middleware that records a span for every capability execution.
// Failure results mark the span as errored.
func Capability(opts ...TraceOption) capability.Middleware {
	t := newTracing(opts...)
	return func(next capability.Handler) capability.Handler {
		return capability.HandleFunc(func(ctx context.Context, args string) capability.Result {
			call, _ := capability.FromCallContext(ctx)
			ctx, span := t.tracer.Start(ctx, fmt.Sprintf("execute_tool %s", call.Name))
			defer span.End()
			span.SetAttributes(
				attribute.String("gen_ai.operation.name", "execute_tool"),
				attribute.String("gen_ai.tool.name", call.Name),
				attribute.String("gen_ai.tool.call.id", call.ID),
			)
			res := next.Handle(ctx, args)
			if res.Success {
				span.SetStatus(codes.Ok, codes.Ok.String())
			} else {
				span.SetStatus(codes.Error, res.Error)
			}
			return res
		})
	}
}
