package capability

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Capability is a named, described, schema-typed action the model may invoke.
type Capability struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	DependsOn   []string           `json:"dependsOn,omitempty"`
	Handler     Handler            `json:"-"`
}

// Execute runs the capability handler with the raw JSON arguments.
func (c *Capability) Execute(ctx context.Context, args string) Result {
	if c.Handler == nil {
		return Failuref("capability %q has no handler", c.Name)
	}
	return c.Handler.Handle(ctx, args)
}

// Option configures a Capability created by New.
type Option func(*options)

type options struct {
	dependsOn   []string
	parameters  *jsonschema.Schema
	middlewares []Middleware
}

// WithDependsOn declares capabilities that should be invoked before this one.
// It is advisory and only surfaces in the manifest.
func WithDependsOn(names ...string) Option {
	return func(o *options) {
		o.dependsOn = append(o.dependsOn, names...)
	}
}

// WithParameters overrides the parameter schema inferred from the input type.
func WithParameters(schema *jsonschema.Schema) Option {
	return func(o *options) {
		o.parameters = schema
	}
}

// WithMiddleware wraps the capability handler with the given middlewares.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// New creates a Capability whose parameter schema is inferred from I.
// Arguments are validated against the schema before fn is called; invalid
// arguments produce a failure result instead of invoking fn.
func New[I any](name, description string, fn func(context.Context, I) Result, opts ...Option) (*Capability, error) {
	o := options{}
	for _, apply := range opts {
		apply(&o)
	}
	schema := o.parameters
	if schema == nil {
		var err error
		if schema, err = jsonschema.For[I](nil); err != nil {
			return nil, err
		}
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, err
	}
	var handler Handler = HandleFunc(func(ctx context.Context, args string) Result {
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		var instance any
		if err := json.Unmarshal([]byte(args), &instance); err != nil {
			return Failuref("invalid arguments: %v", err)
		}
		if err := resolved.Validate(instance); err != nil {
			return Failuref("invalid arguments: %v", err)
		}
		var input I
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return Failuref("invalid arguments: %v", err)
		}
		return fn(ctx, input)
	})
	if len(o.middlewares) > 0 {
		handler = ChainMiddlewares(o.middlewares...)(handler)
	}
	return &Capability{
		Name:        name,
		Description: description,
		Parameters:  schema,
		DependsOn:   o.dependsOn,
		Handler:     handler,
	}, nil
}
