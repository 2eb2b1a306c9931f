package google

import (
	"encoding/json"
	"strings"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

func convertMessagesToGenAI(messages []*aikit.Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case aikit.RoleUser, aikit.RoleSystem:
			contents = append(contents, genai.NewContentFromText(msg.Text(), genai.RoleUser))
		case aikit.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Text(), genai.RoleModel))
		case aikit.RoleTool:
			var (
				calls     []*genai.Part
				responses []*genai.Part
			)
			if text := msg.Text(); text != "" {
				calls = append(calls, genai.NewPartFromText(text))
			}
			for _, call := range msg.ToolCalls() {
				args := map[string]any{}
				if strings.TrimSpace(call.Request) != "" {
					if err := json.Unmarshal([]byte(call.Request), &args); err != nil {
						return nil, err
					}
				}
				calls = append(calls, &genai.Part{FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: args}})
				response := map[string]any{}
				if err := json.Unmarshal([]byte(call.Response), &response); err != nil {
					response["output"] = call.Response
				}
				part := genai.NewPartFromFunctionResponse(call.Name, response)
				part.FunctionResponse.ID = call.ID
				responses = append(responses, part)
			}
			contents = append(contents,
				genai.NewContentFromParts(calls, genai.RoleModel),
				genai.NewContentFromParts(responses, genai.RoleUser),
			)
		}
	}
	return contents, nil
}

func convertCapabilitiesToGenAI(caps []*capability.Capability) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(caps))
	for _, c := range caps {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 c.Name,
			Description:          c.Description,
			ParametersJsonSchema: c.Parameters,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// accumulator merges streamed responses into a single completed message.
type accumulator struct {
	text   strings.Builder
	calls  []aikit.ToolPart
	finish string
	usage  aikit.TokenUsage
}

// add merges resp and returns the text it contributed.
func (a *accumulator) add(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var delta strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			a.finish = string(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				args, _ := json.Marshal(part.FunctionCall.Args)
				id := part.FunctionCall.ID
				if id == "" {
					id = uuid.NewString()
				}
				a.calls = append(a.calls, aikit.ToolPart{ID: id, Name: part.FunctionCall.Name, Request: string(args)})
			case part.Text != "" && !part.Thought:
				delta.WriteString(part.Text)
			}
		}
	}
	if u := resp.UsageMetadata; u != nil {
		a.usage = aikit.TokenUsage{
			PromptTokens:     int64(u.PromptTokenCount),
			CompletionTokens: int64(u.CandidatesTokenCount),
			TotalTokens:      int64(u.TotalTokenCount),
		}
	}
	a.text.WriteString(delta.String())
	return delta.String()
}

func (a *accumulator) response() *aikit.ModelResponse {
	msg := &aikit.Message{
		Role:         aikit.RoleAssistant,
		Status:       aikit.StatusCompleted,
		FinishReason: a.finish,
		TokenUsage:   a.usage,
	}
	if a.text.Len() > 0 {
		msg.Parts = append(msg.Parts, aikit.TextPart{Text: a.text.String()})
	}
	for _, call := range a.calls {
		msg.Role = aikit.RoleTool
		msg.Parts = append(msg.Parts, call)
	}
	return &aikit.ModelResponse{Message: msg}
}
