package aikit_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/capability"
	"github.com/go-kratos/aikit/internal/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// router answers orchestration requests with decision and every other request with text.
func router(decision *aikit.Message, text string) fake.Handler {
	return func(_ int, req *aikit.ModelRequest) (*aikit.Message, error) {
		if req.OutputSchema != nil {
			return decision, nil
		}
		return fake.Text(text), nil
	}
}

func TestOrchestrationNotNeeded(t *testing.T) {
	model := fake.NewModel("m", router(fake.Decision(false), "Hi there!"))
	engine, err := aikit.NewEngine(builders(), aikit.WithModel(model), aikit.WithOrchestration())
	require.NoError(t, err)

	gen, err := engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", gen.Text)
	assert.Empty(t, gen.Capabilities)

	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.NotNil(t, reqs[0].OutputSchema)
	assert.True(t, strings.HasPrefix(reqs[0].Instruction, aikit.DefaultOrchestrationPrompt))
	assert.Contains(t, reqs[0].Instruction, `"identifier": "wallet"`)
	assert.Empty(t, reqs[1].Tools)
	assert.Nil(t, reqs[1].OutputSchema)
	assert.NotContains(t, reqs[1].Instruction, "Available capability groups")
}

func TestOrchestrationSelectsGroups(t *testing.T) {
	model := fake.NewModel("m", router(fake.Decision(true, "staking", "lending"), "ok"))
	engine, err := aikit.NewEngine(builders(), aikit.WithModel(model), aikit.WithOrchestration())
	require.NoError(t, err)

	gen, err := engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "stake 1 SOL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"transfer", "stake"}, gen.Capabilities)

	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []string{"transfer", "stake"}, toolNames(reqs[1]))
	assert.Contains(t, reqs[1].Instruction, `"identifier": "staking"`)
	assert.NotContains(t, reqs[1].Instruction, `"identifier": "wallet"`)
}

func TestOrchestrationUnknownGroups(t *testing.T) {
	model := fake.NewModel("m", router(fake.Decision(true, "lending"), "ok"))
	engine, err := aikit.NewEngine(builders(), aikit.WithModel(model), aikit.WithOrchestration())
	require.NoError(t, err)

	_, err = engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "borrow"})
	assert.ErrorIs(t, err, aikit.ErrNoMatchingGroup)
	assert.Equal(t, 1, model.Calls())
}

func TestOrchestrationInvalidDecision(t *testing.T) {
	model := fake.NewModel("m", router(fake.Text("you need the wallet"), "ok"))
	engine, err := aikit.NewEngine(builders(), aikit.WithModel(model), aikit.WithOrchestration())
	require.NoError(t, err)

	_, err = engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "send"})
	require.ErrorIs(t, err, aikit.ErrInvalidDecision)
	var de *aikit.DecisionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "you need the wallet", de.Raw)
}

func TestExplicitGroupsSkipOrchestration(t *testing.T) {
	model := fake.NewModel("m", router(fake.Decision(false), "ok"))
	engine, err := aikit.NewEngine(builders(), aikit.WithModel(model), aikit.WithOrchestration())
	require.NoError(t, err)

	_, err = engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "send", Groups: []string{"wallet"}})
	require.NoError(t, err)
	reqs := model.Requests()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].OutputSchema)
	assert.Equal(t, []string{"transfer", "balance"}, toolNames(reqs[0]))
}

func TestOrchestratorDedicatedModel(t *testing.T) {
	decider := fake.NewModel("decider", fake.Script(fake.Decision(true, "wallet")))
	model := fake.NewModel("m", fake.Script(fake.Text("ok")))
	engine, err := aikit.NewEngine(builders(),
		aikit.WithModel(model),
		aikit.WithOrchestration(
			aikit.WithOrchestratorModel(decider),
			aikit.WithOrchestratorPrompt("Pick groups."),
		),
	)
	require.NoError(t, err)

	_, err = engine.Respond(context.Background(), &aikit.Request[account]{Prompt: "balance"})
	require.NoError(t, err)
	require.Equal(t, 1, decider.Calls())
	assert.True(t, strings.HasPrefix(decider.Requests()[0].Instruction, "Pick groups.\n\n"))
	assert.Equal(t, []string{"transfer", "balance"}, toolNames(model.Requests()[0]))
}

func TestNewOrchestratorRequiresModel(t *testing.T) {
	_, err := aikit.NewOrchestrator(nil)
	assert.ErrorIs(t, err, aikit.ErrModelRequired)
}

func TestOrchestratorDecideDirect(t *testing.T) {
	decider := fake.NewModel("decider", fake.Script(fake.Decision(true, "token")))
	o, err := aikit.NewOrchestrator(decider)
	require.NoError(t, err)
	catalog, err := aikit.NewCatalog(capability.NewGroup(capability.Descriptor{ID: "token"}))
	require.NoError(t, err)

	res, err := o.Decide(context.Background(), catalog, []*aikit.Message{aikit.UserMessage("price of SOL")})
	require.NoError(t, err)
	caps, ok := res.(aikit.Capabilities)
	require.True(t, ok)
	assert.Equal(t, []string{"token"}, caps.Catalog.IDs())
}

// emptyModel answers every request with no message.
type emptyModel struct{}

func (emptyModel) Name() string { return "empty" }

func (emptyModel) Generate(context.Context, *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	return nil, nil
}

func (emptyModel) NewStream(context.Context, *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(func(*aikit.ModelResponse, error) bool) {}
}

func TestOrchestratorEmptyResponse(t *testing.T) {
	o, err := aikit.NewOrchestrator(emptyModel{})
	require.NoError(t, err)
	catalog, err := aikit.BuildCatalog(account{}, builders()...)
	require.NoError(t, err)

	_, err = o.Decide(context.Background(), catalog, []*aikit.Message{aikit.UserMessage("hello")})
	require.ErrorIs(t, err, aikit.ErrNoFinalResponse)
}
