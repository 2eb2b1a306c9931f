package aikit

import (
	"strings"
)

// Role indicates the author of a message.
type Role string

const (
	// RoleUser is a message written by the end user.
	RoleUser Role = "user"
	// RoleAssistant is a textual answer produced by the model.
	RoleAssistant Role = "assistant"
	// RoleSystem carries instructions for the model.
	RoleSystem Role = "system"
	// RoleTool is a model turn that requested capabilities, together with their results.
	RoleTool Role = "tool"
)

// Status indicates whether a message is complete or a streaming delta.
type Status string

const (
	// StatusIncomplete marks an incremental chunk of a streamed message.
	StatusIncomplete Status = "incomplete"
	// StatusCompleted marks a fully accumulated message.
	StatusCompleted Status = "completed"
)

// Part is a piece of message content.
type Part interface {
	isPart()
}

// TextPart is plain text content.
type TextPart struct {
	Text string `json:"text"`
}

// ToolPart is a single capability call requested by the model.
// Request holds the JSON arguments, Response the JSON encoded Result.
type ToolPart struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Request  string `json:"request"`
	Response string `json:"response,omitempty"`
}

func (TextPart) isPart() {}
func (ToolPart) isPart() {}

// TokenUsage reports token consumption for a single model response.
type TokenUsage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Message is a single entry of a conversation.
type Message struct {
	Role         Role           `json:"role"`
	Parts        []Part         `json:"parts"`
	Status       Status         `json:"status,omitempty"`
	FinishReason string         `json:"finishReason,omitempty"`
	TokenUsage   TokenUsage     `json:"tokenUsage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// UserMessage creates a user message with the given text.
func UserMessage(text string) *Message {
	return &Message{Role: RoleUser, Status: StatusCompleted, Parts: []Part{TextPart{Text: text}}}
}

// AssistantMessage creates an assistant message with the given text.
func AssistantMessage(text string) *Message {
	return &Message{Role: RoleAssistant, Status: StatusCompleted, Parts: []Part{TextPart{Text: text}}}
}

// SystemMessage creates a system message with the given text.
func SystemMessage(text string) *Message {
	return &Message{Role: RoleSystem, Status: StatusCompleted, Parts: []Part{TextPart{Text: text}}}
}

// Text returns the concatenation of all text parts.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var buf strings.Builder
	for _, part := range m.Parts {
		if v, ok := part.(TextPart); ok {
			buf.WriteString(v.Text)
		}
	}
	return buf.String()
}

// ToolCalls returns the capability calls carried by the message, in order.
func (m *Message) ToolCalls() []ToolPart {
	if m == nil {
		return nil
	}
	var calls []ToolPart
	for _, part := range m.Parts {
		if v, ok := part.(ToolPart); ok {
			calls = append(calls, v)
		}
	}
	return calls
}

// String returns the role-prefixed text of the message.
func (m *Message) String() string {
	return string(m.Role) + ": " + m.Text()
}
