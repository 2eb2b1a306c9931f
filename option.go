package aikit

import (
	"github.com/go-kratos/aikit/capability"
	"github.com/rs/zerolog"
)

// DefaultMaxRoundTrips is the default number of capability round trips per turn.
const DefaultMaxRoundTrips = 3

// Option is an option for configuring the Engine.
type Option func(*options)

type options struct {
	model         ModelProvider
	instructions  string
	manifest      bool
	maxRoundTrips int
	orchestrate   bool
	orchestration []OrchestratorOption
	middlewares   []capability.Middleware
	logger        zerolog.Logger
}

// WithModel sets the primary model provider.
func WithModel(model ModelProvider) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithInstructions sets the system instructions for the primary model.
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}

// WithManifest controls whether the manifest of the resolved catalog is
// appended to the system instructions. It is enabled by default.
func WithManifest(enabled bool) Option {
	return func(o *options) {
		o.manifest = enabled
	}
}

// WithMaxRoundTrips sets the maximum number of capability round trips per turn.
func WithMaxRoundTrips(n int) Option {
	return func(o *options) {
		o.maxRoundTrips = n
	}
}

// WithOrchestration enables the orchestration step. The orchestration model
// defaults to the primary model.
func WithOrchestration(opts ...OrchestratorOption) Option {
	return func(o *options) {
		o.orchestrate = true
		o.orchestration = append(o.orchestration, opts...)
	}
}

// WithCapabilityMiddleware wraps every capability execution.
func WithCapabilityMiddleware(mws ...capability.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithLogger sets the logger for the Engine.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
