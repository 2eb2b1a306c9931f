// Package fake provides a scripted ModelProvider for tests.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/stream"
)

// Handler produces the completed message for the n-th request (starting at 0).
type Handler func(n int, req *aikit.ModelRequest) (*aikit.Message, error)

// Model is a ModelProvider that answers from a Handler and records every request.
type Model struct {
	name    string
	handler Handler

	mu       sync.Mutex
	requests []aikit.ModelRequest
}

// NewModel creates a scripted model.
func NewModel(name string, handler Handler) *Model {
	return &Model{name: name, handler: handler}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

func (m *Model) record(req *aikit.ModelRequest) (*aikit.Message, error) {
	m.mu.Lock()
	n := len(m.requests)
	snapshot := *req
	snapshot.Messages = slices.Clone(req.Messages)
	snapshot.Tools = slices.Clone(req.Tools)
	m.requests = append(m.requests, snapshot)
	m.mu.Unlock()
	return m.handler(n, &snapshot)
}

// Generate returns the scripted message.
func (m *Model) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := m.record(req)
	if err != nil {
		return nil, err
	}
	return &aikit.ModelResponse{Message: msg}, nil
}

// NewStream emits the scripted text word by word followed by the completed message.
func (m *Model) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	msg, err := m.record(req)
	if err != nil {
		return stream.Error[*aikit.ModelResponse](err)
	}
	var responses []*aikit.ModelResponse
	if text := msg.Text(); text != "" {
		for _, word := range strings.SplitAfter(text, " ") {
			responses = append(responses, &aikit.ModelResponse{Message: &aikit.Message{
				Role:   aikit.RoleAssistant,
				Status: aikit.StatusIncomplete,
				Parts:  []aikit.Part{aikit.TextPart{Text: word}},
			}})
		}
	}
	responses = append(responses, &aikit.ModelResponse{Message: msg})
	return stream.Just(responses...)
}

// Requests returns a snapshot of every request received so far.
func (m *Model) Requests() []aikit.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Calls returns the number of requests received so far.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Script answers the n-th request with messages[n], repeating the last one.
func Script(messages ...*aikit.Message) Handler {
	return func(n int, _ *aikit.ModelRequest) (*aikit.Message, error) {
		if len(messages) == 0 {
			return nil, fmt.Errorf("fake: no scripted message for request %d", n)
		}
		return messages[min(n, len(messages)-1)], nil
	}
}

// Text returns a completed assistant message.
func Text(text string) *aikit.Message {
	return aikit.AssistantMessage(text)
}

// Call describes a capability call requested by the fake model.
type Call struct {
	Name string
	Args string
}

// ToolCalls returns a completed message requesting the given capability calls.
func ToolCalls(calls ...Call) *aikit.Message {
	msg := &aikit.Message{Role: aikit.RoleTool, Status: aikit.StatusCompleted, FinishReason: "tool_calls"}
	for i, c := range calls {
		msg.Parts = append(msg.Parts, aikit.ToolPart{ID: fmt.Sprintf("call_%d", i), Name: c.Name, Request: c.Args})
	}
	return msg
}

// Decision returns a completed message holding an orchestration decision.
func Decision(needed bool, groups ...string) *aikit.Message {
	if groups == nil {
		groups = []string{}
	}
	b, _ := json.Marshal(aikit.Decision{Groups: groups, Needed: needed})
	return aikit.AssistantMessage(string(b))
}
