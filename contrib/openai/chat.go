package openai

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"
)

var _ aikit.ModelProvider = (*ChatProvider)(nil)

var (
	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("empty completion response")
)

// ChatOption defines options for chat providers.
type ChatOption func(*ChatOptions)

// WithReasoningEffort sets the reasoning effort for chat completions.
func WithReasoningEffort(effort shared.ReasoningEffort) ChatOption {
	return func(o *ChatOptions) {
		o.ReasoningEffort = effort
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = t
	}
}

// WithMaxOutputTokens limits the number of generated tokens.
func WithMaxOutputTokens(n int64) ChatOption {
	return func(o *ChatOptions) {
		o.MaxOutputTokens = n
	}
}

// WithChatOptions sets request options for chat completions.
func WithChatOptions(opts ...option.RequestOption) ChatOption {
	return func(o *ChatOptions) {
		o.RequestOpts = append(o.RequestOpts, opts...)
	}
}

// ChatOptions holds configuration for the ChatProvider.
type ChatOptions struct {
	ReasoningEffort shared.ReasoningEffort
	Temperature     float64
	MaxOutputTokens int64
	RequestOpts     []option.RequestOption
}

// ChatProvider implements aikit.ModelProvider for OpenAI-compatible chat models.
type ChatProvider struct {
	model  string
	opts   ChatOptions
	client openai.Client
}

// NewChatProvider constructs an OpenAI provider for model. The API key is read
// from the OPENAI_API_KEY environment variable unless set with WithChatOptions.
// If OPENAI_BASE_URL is set, it is used as the API base URL.
func NewChatProvider(model string, opts ...ChatOption) *ChatProvider {
	chatOpts := ChatOptions{}
	for _, opt := range opts {
		opt(&chatOpts)
	}
	return &ChatProvider{
		model:  model,
		opts:   chatOpts,
		client: openai.NewClient(chatOpts.RequestOpts...),
	}
}

// Name returns the model identifier.
func (p *ChatProvider) Name() string {
	return p.model
}

// Generate executes a non-streaming chat completion request.
func (p *ChatProvider) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	params, err := p.toChatCompletionParams(req)
	if err != nil {
		return nil, err
	}
	chatResponse, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return choiceToResponse(chatResponse)
}

// NewStream streams chat completion chunks and converts each choice delta
// into a ModelResponse, followed by the accumulated completion.
func (p *ChatProvider) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(yield func(*aikit.ModelResponse, error) bool) {
		params, err := p.toChatCompletionParams(req)
		if err != nil {
			yield(nil, err)
			return
		}
		streaming := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer streaming.Close()
		acc := openai.ChatCompletionAccumulator{}
		for streaming.Next() {
			chunk := streaming.Current()
			acc.AddChunk(chunk)
			if !yield(chunkChoiceToResponse(chunk.Choices), nil) {
				return
			}
		}
		if err := streaming.Err(); err != nil {
			yield(nil, err)
			return
		}
		finalResponse, err := choiceToResponse(&acc.ChatCompletion)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(finalResponse, nil)
	}
}

// toChatCompletionParams converts a generic model request into OpenAI params.
func (p *ChatProvider) toChatCompletionParams(req *aikit.ModelRequest) (openai.ChatCompletionNewParams, error) {
	tools, err := toTools(req.Tools)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	params := openai.ChatCompletionNewParams{
		Tools:           tools,
		Model:           model,
		ReasoningEffort: p.opts.ReasoningEffort,
		Messages:        make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1),
	}
	if len(tools) > 0 && req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(string(req.ToolChoice))}
	}
	if p.opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(p.opts.MaxOutputTokens)
	}
	if p.opts.Temperature > 0 {
		params.Temperature = param.NewOpt(p.opts.Temperature)
	}
	if req.OutputSchema != nil {
		schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   "structured_outputs",
			Schema: req.OutputSchema,
			Strict: openai.Bool(true),
		}
		if req.OutputSchema.Title != "" {
			schemaParam.Name = req.OutputSchema.Title
		}
		if req.OutputSchema.Description != "" {
			schemaParam.Description = openai.String(req.OutputSchema.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		}
	}
	if req.Instruction != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.Instruction))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case aikit.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Text()))
		case aikit.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Text()))
		case aikit.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Text()))
		case aikit.RoleTool:
			params.Messages = append(params.Messages, toToolCallMessage(msg))
			for _, call := range msg.ToolCalls() {
				params.Messages = append(params.Messages, openai.ToolMessage(call.Response, call.ID))
			}
		}
	}
	return params, nil
}

func toToolCallMessage(msg *aikit.Message) openai.ChatCompletionMessageParamUnion {
	calls := msg.ToolCalls()
	toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(calls))
	for _, call := range calls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Request,
				},
			},
		})
	}
	assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if text := msg.Text(); text != "" {
		assistant.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
}

func toTools(caps []*capability.Capability) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(caps) == 0 {
		return nil, nil
	}
	params := make([]openai.ChatCompletionToolUnionParam, 0, len(caps))
	for _, c := range caps {
		fn := openai.FunctionDefinitionParam{
			Name: c.Name,
		}
		if c.Description != "" {
			fn.Description = openai.String(c.Description)
		}
		if c.Parameters != nil {
			b, err := json.Marshal(c.Parameters)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(b, &fn.Parameters); err != nil {
				return nil, err
			}
		}
		params = append(params, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: fn,
			},
		})
	}
	return params, nil
}

// choiceToResponse converts a completion to a completed ModelResponse.
func choiceToResponse(cc *openai.ChatCompletion) (*aikit.ModelResponse, error) {
	if len(cc.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	msg := &aikit.Message{
		Role:   aikit.RoleAssistant,
		Status: aikit.StatusCompleted,
		TokenUsage: aikit.TokenUsage{
			PromptTokens:     cc.Usage.PromptTokens,
			CompletionTokens: cc.Usage.CompletionTokens,
			TotalTokens:      cc.Usage.TotalTokens,
		},
	}
	for _, choice := range cc.Choices {
		if choice.Message.Content != "" {
			msg.Parts = append(msg.Parts, aikit.TextPart{Text: choice.Message.Content})
		}
		if choice.FinishReason != "" {
			msg.FinishReason = choice.FinishReason
		}
		for _, call := range choice.Message.ToolCalls {
			msg.Role = aikit.RoleTool
			msg.Parts = append(msg.Parts, aikit.ToolPart{
				ID:      call.ID,
				Name:    call.Function.Name,
				Request: call.Function.Arguments,
			})
		}
	}
	return &aikit.ModelResponse{Message: msg}, nil
}

// chunkChoiceToResponse converts a streaming chunk to an incomplete ModelResponse.
// Tool call deltas are only surfaced through the accumulated completion.
func chunkChoiceToResponse(choices []openai.ChatCompletionChunkChoice) *aikit.ModelResponse {
	msg := &aikit.Message{
		Role:   aikit.RoleAssistant,
		Status: aikit.StatusIncomplete,
	}
	for _, choice := range choices {
		if choice.Delta.Content != "" {
			msg.Parts = append(msg.Parts, aikit.TextPart{Text: choice.Delta.Content})
		}
		if choice.FinishReason != "" {
			msg.FinishReason = choice.FinishReason
		}
	}
	return &aikit.ModelResponse{Message: msg}
}
