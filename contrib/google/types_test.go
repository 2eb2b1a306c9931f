package google

import (
	"testing"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertMessagesToGenAI(t *testing.T) {
	contents, err := convertMessagesToGenAI([]*aikit.Message{
		aikit.UserMessage("price of SOL?"),
		{Role: aikit.RoleTool, Parts: []aikit.Part{
			aikit.ToolPart{ID: "c1", Name: "getTokenData", Request: `{"token":"SOL"}`, Response: `{"success":true,"data":{"price":150}}`},
		}},
		aikit.AssistantMessage("SOL trades at 150."),
	})
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "SOL", contents[1].Parts[0].FunctionCall.Args["token"])
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "c1", contents[2].Parts[0].FunctionResponse.ID)
	assert.Equal(t, true, contents[2].Parts[0].FunctionResponse.Response["success"])
	assert.Equal(t, string(genai.RoleModel), contents[3].Role)
}

func TestToGenerateConfig(t *testing.T) {
	m := &geminiModel{model: "gemini-2.0-flash-lite"}
	c := &capability.Capability{Name: "getTrendingNFTs", Description: "Trending NFTs"}
	config, err := m.toGenerateConfig(&aikit.ModelRequest{
		Instruction: "Be brief.",
		Tools:       []*capability.Capability{c},
		ToolChoice:  aikit.ToolChoiceNone,
	})
	require.NoError(t, err)
	require.Len(t, config.Tools, 1)
	assert.Equal(t, "getTrendingNFTs", config.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, genai.FunctionCallingConfigModeNone, config.ToolConfig.FunctionCallingConfig.Mode)
	assert.Equal(t, "Be brief.", config.SystemInstruction.Parts[0].Text)
	assert.Empty(t, config.ResponseMIMEType)
}

func TestAccumulator(t *testing.T) {
	var acc accumulator
	assert.Equal(t, "Hello ", acc.add(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText("Hello ", genai.RoleModel),
	}}}))
	assert.Equal(t, "", acc.add(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromParts([]*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "getTrendingNFTs", Args: map[string]any{}}}}, genai.RoleModel),
		FinishReason: genai.FinishReasonStop,
	}}}))

	msg := acc.response().Message
	assert.Equal(t, aikit.RoleTool, msg.Role)
	assert.Equal(t, "Hello ", msg.Text())
	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "getTrendingNFTs", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
	assert.Equal(t, `{}`, calls[0].Request)
	assert.Equal(t, string(genai.FinishReasonStop), msg.FinishReason)
}
