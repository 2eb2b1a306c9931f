package google

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth/credentials"
	"github.com/go-kratos/aikit"
	"google.golang.org/genai"
)

var _ aikit.ModelProvider = (*geminiModel)(nil)

// Option defines a configuration option for the Provider.
type Option func(*options)

// WithTemperature sets the temperature for the model.
func WithTemperature(t float32) Option {
	return func(o *options) {
		o.Temperature = &t
	}
}

// WithTopP sets the top-p value for the model.
func WithTopP(p float32) Option {
	return func(o *options) {
		o.TopP = &p
	}
}

// WithMaxOutputTokens sets the maximum number of output tokens.
func WithMaxOutputTokens(tokens int32) Option {
	return func(o *options) {
		o.MaxOutputTokens = tokens
	}
}

// WithSeed sets the seed for the model.
func WithSeed(seed int32) Option {
	return func(o *options) {
		o.Seed = &seed
	}
}

// WithThinkingConfig sets the thinking config for the provider.
func WithThinkingConfig(c *genai.ThinkingConfig) Option {
	return func(o *options) {
		o.ThinkingConfig = c
	}
}

// options holds configuration options for the Provider.
type options struct {
	Temperature     *float32
	TopP            *float32
	MaxOutputTokens int32
	Seed            *int32
	ThinkingConfig  *genai.ThinkingConfig
}

// geminiModel provides a unified interface for Gemini API access.
type geminiModel struct {
	model  string
	opts   options
	client *genai.Client
}

// NewModel creates a new Gemini model provider.
func NewModel(ctx context.Context, model string, clientConfig *genai.ClientConfig, opts ...Option) (aikit.ModelProvider, error) {
	modelOpts := options{}
	for _, apply := range opts {
		apply(&modelOpts)
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	return &geminiModel{
		model:  model,
		opts:   modelOpts,
		client: client,
	}, nil
}

// VertexConfig returns a Vertex AI client config authenticated with
// application default credentials, or with credentialsFile when set.
func VertexConfig(project, location, credentialsFile string) (*genai.ClientConfig, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		CredentialsFile: credentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("detecting credentials: %w", err)
	}
	return &genai.ClientConfig{
		Backend:     genai.BackendVertexAI,
		Project:     project,
		Location:    location,
		Credentials: creds,
	}, nil
}

// Name returns the name of the model.
func (m *geminiModel) Name() string {
	return m.model
}

// Generate executes a non-streaming request.
func (m *geminiModel) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	contents, err := convertMessagesToGenAI(req.Messages)
	if err != nil {
		return nil, err
	}
	config, err := m.toGenerateConfig(req)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	var acc accumulator
	acc.add(resp)
	return acc.response(), nil
}

func (m *geminiModel) toGenerateConfig(req *aikit.ModelRequest) (*genai.GenerateContentConfig, error) {
	var config genai.GenerateContentConfig
	if m.opts.Temperature != nil {
		config.Temperature = m.opts.Temperature
	}
	if m.opts.TopP != nil {
		config.TopP = m.opts.TopP
	}
	if m.opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = m.opts.MaxOutputTokens
	}
	if m.opts.Seed != nil {
		config.Seed = m.opts.Seed
	}
	if m.opts.ThinkingConfig != nil {
		config.ThinkingConfig = m.opts.ThinkingConfig
	}
	if req.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if req.OutputSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.OutputSchema
	}
	if len(req.Tools) > 0 {
		config.Tools = convertCapabilitiesToGenAI(req.Tools)
		mode := genai.FunctionCallingConfigModeAuto
		if req.ToolChoice == aikit.ToolChoiceNone {
			mode = genai.FunctionCallingConfigModeNone
		}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
		}
	}
	return &config, nil
}

// NewStream yields text deltas followed by the accumulated response.
func (m *geminiModel) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(yield func(*aikit.ModelResponse, error) bool) {
		contents, err := convertMessagesToGenAI(req.Messages)
		if err != nil {
			yield(nil, err)
			return
		}
		config, err := m.toGenerateConfig(req)
		if err != nil {
			yield(nil, err)
			return
		}
		var acc accumulator
		for chunk, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, config) {
			if err != nil {
				yield(nil, err)
				return
			}
			delta := acc.add(chunk)
			if delta == "" {
				continue
			}
			if !yield(&aikit.ModelResponse{Message: &aikit.Message{
				Role:   aikit.RoleAssistant,
				Status: aikit.StatusIncomplete,
				Parts:  []aikit.Part{aikit.TextPart{Text: delta}},
			}}, nil) {
				return
			}
		}
		yield(acc.response(), nil)
	}
}
