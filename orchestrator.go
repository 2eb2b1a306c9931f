package aikit

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog"
)

// Decision is the structured output of the orchestration model.
type Decision struct {
	Groups []string `json:"groups" jsonschema:"Identifiers of the capability groups needed to answer the conversation"`
	Needed bool     `json:"needed" jsonschema:"Whether any capability group is needed; false when a plain text answer suffices"`
}

// Resolution is the outcome of deciding which capabilities to expose for a turn.
// It is either NoCapabilities or Capabilities.
type Resolution interface {
	resolution()
}

// NoCapabilities indicates the turn is answered without any capability.
type NoCapabilities struct {
	Reason string
}

// Capabilities carries the resolved catalog exposed to the model.
type Capabilities struct {
	Catalog *Catalog
}

func (NoCapabilities) resolution() {}
func (Capabilities) resolution()   {}

// OrchestratorOption is an option for configuring the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorModel sets a dedicated model for orchestration.
func WithOrchestratorModel(model ModelProvider) OrchestratorOption {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithOrchestratorPrompt replaces the default orchestration instructions.
func WithOrchestratorPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.prompt = prompt
	}
}

// WithOrchestratorManifest controls whether the catalog manifest is appended
// to the orchestration prompt. It is enabled by default.
func WithOrchestratorManifest(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.manifest = enabled
	}
}

// WithOrchestratorLogger sets the logger for the Orchestrator.
func WithOrchestratorLogger(logger zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator asks a model which capability groups a conversation needs.
type Orchestrator struct {
	model    ModelProvider
	prompt   string
	manifest bool
	logger   zerolog.Logger
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// NewOrchestrator creates an Orchestrator backed by model.
func NewOrchestrator(model ModelProvider, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		model:    model,
		prompt:   DefaultOrchestrationPrompt,
		manifest: true,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.model == nil {
		return nil, ErrModelRequired
	}
	schema, err := jsonschema.For[Decision](nil)
	if err != nil {
		return nil, err
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, err
	}
	o.schema = schema
	o.resolved = resolved
	return o, nil
}

// Decide asks the orchestration model which groups of catalog the
// conversation needs and resolves them against the catalog.
func (o *Orchestrator) Decide(ctx context.Context, catalog *Catalog, messages []*Message) (Resolution, error) {
	decision, err := o.decide(ctx, catalog, messages)
	if err != nil {
		return nil, err
	}
	if !decision.Needed || len(decision.Groups) == 0 {
		o.logger.Debug().Bool("needed", decision.Needed).Msg("orchestration selected no capability groups")
		return NoCapabilities{Reason: "orchestration decided no capability group is needed"}, nil
	}
	resolved, err := catalog.Resolve(decision.Groups)
	if err != nil {
		return nil, err
	}
	if unknown := catalog.Unknown(decision.Groups); len(unknown) > 0 {
		o.logger.Warn().Strs("groups", unknown).Msg("orchestration selected unknown capability groups")
	}
	o.logger.Debug().Strs("groups", resolved.IDs()).Msg("orchestration selected capability groups")
	return Capabilities{Catalog: resolved}, nil
}

func (o *Orchestrator) decide(ctx context.Context, catalog *Catalog, messages []*Message) (*Decision, error) {
	var manifest string
	if o.manifest {
		var err error
		if manifest, err = catalog.Manifest(); err != nil {
			return nil, err
		}
	}
	instruction, err := renderSystemPrompt(o.prompt, manifest)
	if err != nil {
		return nil, err
	}
	res, err := o.model.Generate(ctx, &ModelRequest{
		Model:        o.model.Name(),
		Instruction:  instruction,
		Messages:     slices.Clone(messages),
		OutputSchema: o.schema,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Message == nil {
		return nil, ErrNoFinalResponse
	}
	return parseDecision(res.Message.Text(), o.resolved)
}

// parseDecision validates raw model output against the decision schema.
func parseDecision(raw string, resolved *jsonschema.Resolved) (*Decision, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, &DecisionError{Raw: raw, Err: errors.New("empty response")}
	}
	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		return nil, &DecisionError{Raw: raw, Err: err}
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, &DecisionError{Raw: raw, Err: err}
	}
	var decision Decision
	if err := json.Unmarshal([]byte(text), &decision); err != nil {
		return nil, &DecisionError{Raw: raw, Err: err}
	}
	return &decision, nil
}
