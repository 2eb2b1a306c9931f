package aikit

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request is a single conversational turn.
type Request[C any] struct {
	// Prompt is the new user message. It may be empty when History already
	// ends with the user message.
	Prompt string
	// History holds the prior conversation. It is never modified.
	History []*Message
	// Context is the runtime context bound to every capability group.
	Context C
	// Groups restricts the turn to the given group identifiers. A nil slice
	// leaves selection to orchestration, or exposes every group when
	// orchestration is disabled. An empty, non-nil slice exposes no group.
	Groups []string
}

// Generation is the result of a non-streaming turn.
type Generation struct {
	ID string
	// Text is the text produced by the model across every step of the turn.
	Text string
	// Messages holds the messages produced during the turn, in order.
	Messages []*Message
	// Capabilities lists the capability names exposed to the model.
	Capabilities []string
	// RoundTrips is the number of capability execution rounds performed.
	RoundTrips int
}

// Engine runs conversational turns against a model with capability groups
// built for a runtime context of type C.
type Engine[C any] struct {
	options
	builders     []capability.Builder[C]
	orchestrator *Orchestrator
}

// NewEngine creates an Engine with the given group builders.
func NewEngine[C any](builders []capability.Builder[C], opts ...Option) (*Engine[C], error) {
	e := &Engine[C]{
		options: options{
			manifest:      true,
			maxRoundTrips: DefaultMaxRoundTrips,
			logger:        zerolog.Nop(),
		},
		builders: builders,
	}
	for _, opt := range opts {
		opt(&e.options)
	}
	if e.model == nil {
		return nil, ErrModelRequired
	}
	if len(e.builders) == 0 {
		return nil, ErrNoGroupBuilders
	}
	if e.maxRoundTrips < 1 {
		return nil, ErrInvalidRoundTrips
	}
	if e.orchestrate {
		orchestration := append([]OrchestratorOption{WithOrchestratorLogger(e.logger)}, e.orchestration...)
		o, err := NewOrchestrator(e.model, orchestration...)
		if err != nil {
			return nil, err
		}
		e.orchestrator = o
	}
	return e, nil
}

// Catalog builds the full catalog for the runtime context rc.
func (e *Engine[C]) Catalog(rc C) (*Catalog, error) {
	return BuildCatalog(rc, e.builders...)
}

// Resolve decides which capability groups are exposed for a turn.
func (e *Engine[C]) Resolve(ctx context.Context, rc C, groups []string, messages []*Message) (Resolution, error) {
	catalog, err := e.Catalog(rc)
	if err != nil {
		return nil, err
	}
	switch {
	case groups != nil:
		if len(groups) == 0 {
			return NoCapabilities{Reason: "no capability group requested"}, nil
		}
		resolved, err := catalog.Resolve(groups)
		if err != nil {
			return nil, err
		}
		if unknown := catalog.Unknown(groups); len(unknown) > 0 {
			e.logger.Warn().Strs("groups", unknown).Msg("ignoring unknown capability groups")
		}
		return Capabilities{Catalog: resolved}, nil
	case e.orchestrator != nil:
		return e.orchestrator.Decide(ctx, catalog, messages)
	default:
		return Capabilities{Catalog: catalog}, nil
	}
}

// turn is the mutable state of a single Respond or Stream call.
type turn struct {
	request    *ModelRequest
	names      []string
	handlers   map[string]capability.Handler
	roundTrips int
}

func (e *Engine[C]) prepare(ctx context.Context, req *Request[C]) (*turn, error) {
	if e.model == nil {
		return nil, ErrModelRequired
	}
	messages := make([]*Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	if req.Prompt != "" {
		messages = append(messages, UserMessage(req.Prompt))
	}
	resolution, err := e.Resolve(ctx, req.Context, req.Groups, messages)
	if err != nil {
		return nil, err
	}
	t := &turn{
		request:  &ModelRequest{Model: e.model.Name(), Messages: messages},
		handlers: make(map[string]capability.Handler),
	}
	var manifest string
	switch r := resolution.(type) {
	case Capabilities:
		caps, collisions := r.Catalog.Merge()
		for _, c := range collisions {
			e.logger.Warn().Str("capability", c.Name).Str("kept", c.Kept).Str("dropped", c.Dropped).Msg("capability name collision")
		}
		if e.manifest {
			if manifest, err = r.Catalog.Manifest(); err != nil {
				return nil, err
			}
		}
		mw := capability.ChainMiddlewares(append([]capability.Middleware{capability.Recover()}, e.middlewares...)...)
		for _, c := range caps {
			t.names = append(t.names, c.Name)
			t.handlers[c.Name] = mw(capability.HandleFunc(c.Execute))
		}
		if len(caps) > 0 {
			t.request.Tools = caps
			t.request.ToolChoice = ToolChoiceAuto
		}
		e.logger.Debug().Strs("groups", r.Catalog.IDs()).Int("capabilities", len(caps)).Msg("capabilities resolved")
	case NoCapabilities:
		e.logger.Debug().Str("reason", r.Reason).Msg("no capabilities exposed")
	}
	if t.request.Instruction, err = renderSystemPrompt(e.instructions, manifest); err != nil {
		return nil, err
	}
	return t, nil
}

// advance handles a completed model message. It returns the message to
// record for the turn and whether another model request is needed.
func (e *Engine[C]) advance(ctx context.Context, t *turn, msg *Message) (*Message, bool) {
	calls := msg.ToolCalls()
	if len(calls) == 0 {
		return msg, false
	}
	if len(t.handlers) == 0 || t.request.ToolChoice == ToolChoiceNone {
		e.logger.Warn().Int("calls", len(calls)).Msg("dropping capability calls, no further round trips allowed")
		return msg, false
	}
	executed := e.execute(ctx, t, msg)
	t.roundTrips++
	t.request.Messages = append(t.request.Messages, executed)
	if t.roundTrips >= e.maxRoundTrips {
		t.request.Tools = nil
		t.request.ToolChoice = ToolChoiceNone
	}
	return executed, true
}

// execute runs every capability call of msg sequentially and returns a copy
// of msg carrying the results.
func (e *Engine[C]) execute(ctx context.Context, t *turn, msg *Message) *Message {
	out := *msg
	out.Role = RoleTool
	out.Parts = slices.Clone(msg.Parts)
	for i, part := range out.Parts {
		call, ok := part.(ToolPart)
		if !ok {
			continue
		}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		var (
			result capability.Result
			start  = time.Now()
		)
		if handler, ok := t.handlers[call.Name]; ok {
			result = handler.Handle(capability.NewCallContext(ctx, capability.Call{ID: call.ID, Name: call.Name}), call.Request)
		} else {
			result = capability.Failuref("unknown capability %q", call.Name)
		}
		event := e.logger.Debug()
		if !result.Success {
			event = e.logger.Warn().Str("error", result.Error)
		}
		event.Str("capability", call.Name).Dur("elapsed", time.Since(start)).Bool("success", result.Success).Msg("capability executed")
		call.Response = result.String()
		out.Parts[i] = call
	}
	return &out
}

// Respond runs a turn to completion and returns the generated text.
func (e *Engine[C]) Respond(ctx context.Context, req *Request[C]) (*Generation, error) {
	t, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	var (
		gen  = &Generation{ID: uuid.NewString(), Capabilities: t.names}
		text strings.Builder
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.model.Generate(ctx, t.request)
		if err != nil {
			return nil, err
		}
		if res == nil || res.Message == nil {
			return nil, ErrNoFinalResponse
		}
		text.WriteString(res.Message.Text())
		msg, next := e.advance(ctx, t, res.Message)
		gen.Messages = append(gen.Messages, msg)
		if !next {
			break
		}
	}
	gen.Text = text.String()
	gen.RoundTrips = t.roundTrips
	return gen, nil
}

// Stream runs a turn and returns its text chunks in arrival order.
// Capability resolution happens before Stream returns; resolution errors
// are returned directly. Model and capability rounds run lazily while the
// generator is consumed.
func (e *Engine[C]) Stream(ctx context.Context, req *Request[C]) (Generator[string, error], error) {
	t, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return func(yield func(string, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			var (
				final    *Message
				streamed bool
			)
			for res, err := range e.model.NewStream(ctx, t.request) {
				if err != nil {
					yield("", err)
					return
				}
				if res == nil || res.Message == nil {
					continue
				}
				if res.Message.Status == StatusCompleted {
					final = res.Message
					continue
				}
				if chunk := res.Message.Text(); chunk != "" {
					streamed = true
					if !yield(chunk, nil) {
						return
					}
				}
			}
			if final == nil {
				yield("", ErrNoFinalResponse)
				return
			}
			if !streamed {
				if text := final.Text(); text != "" {
					if !yield(text, nil) {
						return
					}
				}
			}
			if _, next := e.advance(ctx, t, final); !next {
				return
			}
		}
	}, nil
}
