package aikit

import (
	"context"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

// ToolChoice controls whether the model may call capabilities.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide whether to call capabilities.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids capability calls and forces a textual answer.
	ToolChoiceNone ToolChoice = "none"
)

// ModelRequest is a chat-style request to a provider.
type ModelRequest struct {
	Model        string                   `json:"model"`
	Instruction  string                   `json:"instruction,omitempty"`
	Messages     []*Message               `json:"messages"`
	Tools        []*capability.Capability `json:"tools,omitempty"`
	ToolChoice   ToolChoice               `json:"toolChoice,omitempty"`
	OutputSchema *jsonschema.Schema       `json:"outputSchema,omitempty"`
}

// ModelResponse is a single message produced by the provider.
type ModelResponse struct {
	Message *Message `json:"message"`
}

// ModelProvider is an interface for chat-style models.
//
// NewStream yields incremental messages with StatusIncomplete followed by a
// single accumulated message with StatusCompleted. When the model requests
// capabilities the completed message has RoleTool and carries ToolParts.
// When OutputSchema is set the completed message text is a JSON document.
type ModelProvider interface {
	// Name returns the model identifier.
	Name() string
	// Generate executes the request and returns a single response.
	Generate(context.Context, *ModelRequest) (*ModelResponse, error)
	// NewStream executes the request and returns a stream of responses.
	NewStream(context.Context, *ModelRequest) Generator[*ModelResponse, error]
}
