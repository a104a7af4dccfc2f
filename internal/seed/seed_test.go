package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-workflow-hub/backend/internal/capability"
	"ai-workflow-hub/backend/internal/logging"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/workflow"
	"ai-workflow-hub/backend/pkg/models"
)

func TestCapabilitiesCoverEveryOperation(t *testing.T) {
	seen := map[capability.OperationType]bool{}
	for _, c := range Capabilities() {
		op := capability.OperationType(c.OperationType)
		assert.True(t, op.Known(), c.OperationType)
		assert.False(t, seen[op], "duplicate %s", op)
		assert.True(t, c.IsActive)
		seen[op] = true
	}
	assert.Len(t, seen, len(capability.OperationTypes))
}

func TestLoadWorkflows(t *testing.T) {
	workflows, err := LoadWorkflows(filepath.Join("testdata", "workflows.json"))
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	assert.Equal(t, "Summarize then translate", workflows[0].Name)
	require.Len(t, workflows[0].Nodes, 2)
	assert.Equal(t, "summarization", workflows[0].Nodes[0].Data.CapabilityID)
	assert.Equal(t, "Spanish", workflows[0].Nodes[1].Data.Parameters["targetLanguage"])
	require.Len(t, workflows[0].Edges, 1)
	assert.Equal(t, models.WorkflowStatusDraft, workflows[1].Status)
}

func TestLoadWorkflowsErrors(t *testing.T) {
	_, err := LoadWorkflows(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadWorkflows(bad)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store, err := repository.OpenBadgerStore("")
	require.NoError(t, err)
	defer store.Close()

	workflows, err := LoadWorkflows(filepath.Join("testdata", "workflows.json"))
	require.NoError(t, err)

	result, err := Run(ctx, store, "dev@localhost", workflows, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 6, result.CapabilitiesCreated)
	assert.Equal(t, 2, result.WorkflowsCreated)
	assert.Zero(t, result.Skipped)

	caps, err := store.ListCapabilities(ctx)
	require.NoError(t, err)
	ids := map[string]string{}
	for _, c := range caps {
		ids[c.OperationType] = c.ID
	}

	stored, err := store.ListWorkflows(ctx, result.User.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	byName := map[string]*models.Workflow{}
	for _, wf := range stored {
		byName[wf.Name] = wf
	}
	chain := byName["Summarize then translate"]
	require.NotNil(t, chain)
	assert.Equal(t, models.WorkflowStatusActive, chain.Status)
	assert.Equal(t, ids["summarization"], chain.Nodes[0].Data.CapabilityID)
	assert.Equal(t, ids["translation"], chain.Nodes[1].Data.CapabilityID)
	review := byName["Code review"]
	require.NotNil(t, review)
	assert.Equal(t, ids["analysis"], review.Nodes[0].Data.CapabilityID)

	again, err := Run(ctx, store, "dev@localhost", workflows, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
	assert.Zero(t, again.CapabilitiesCreated)
	assert.Zero(t, again.WorkflowsCreated)
	assert.Equal(t, 8, again.Skipped)
}

func TestResolveCapabilitiesKeepsUnknownReferences(t *testing.T) {
	catalogue := []*models.Capability{{ID: "c1", Name: "Chat", OperationType: "chat"}}
	nodes := []models.Node{
		{ID: "a", Data: models.NodeData{CapabilityID: "c1"}},
		{ID: "b", Data: models.NodeData{CapabilityID: "chat"}},
		{ID: "c", Data: models.NodeData{CapabilityID: "unknown"}},
		{ID: "d"},
	}

	out := resolveCapabilities(nodes, catalogue)
	assert.Equal(t, "c1", out[0].Data.CapabilityID)
	assert.Equal(t, "c1", out[1].Data.CapabilityID)
	assert.Equal(t, "unknown", out[2].Data.CapabilityID)
	assert.Empty(t, out[3].Data.CapabilityID)
	assert.Equal(t, "chat", nodes[1].Data.CapabilityID)
}

func TestCapabilityDefaultsMatchInvoker(t *testing.T) {
	invoker := capability.NewInvoker(capability.EchoTransport{}, capability.DefaultChatModel)
	for _, c := range Capabilities() {
		t.Run(c.Name, func(t *testing.T) {
			op := capability.OperationType(c.OperationType)
			assert.Equal(t,
				invoker.Request(op, "input", nil),
				invoker.Request(op, "input", capability.Parameters(c.Parameters)),
			)
		})
	}
}

// recordingTransport keeps every completion request.
type recordingTransport struct {
	requests []capability.CompletionRequest
}

func (r *recordingTransport) Complete(ctx context.Context, req capability.CompletionRequest) (string, error) {
	r.requests = append(r.requests, req)
	return "ok", nil
}

func TestSeededCatalogueKeepsDispatchDefaults(t *testing.T) {
	ctx := context.Background()
	store, err := repository.OpenBadgerStore("")
	require.NoError(t, err)
	defer store.Close()

	workflows := []models.Workflow{{
		Name: "Defaults",
		Nodes: []models.Node{
			{ID: "analyze", Data: models.NodeData{Label: "Analyze", CapabilityID: string(capability.Analysis)}},
			{ID: "chat", Data: models.NodeData{Label: "Chat", CapabilityID: string(capability.Chat)}},
		},
		Edges: []models.Edge{},
	}}
	result, err := Run(ctx, store, "dev@localhost", workflows, logging.NewNop())
	require.NoError(t, err)

	stored, err := store.ListWorkflows(ctx, result.User.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	execution := &models.Execution{WorkflowID: stored[0].ID}
	require.NoError(t, store.CreateExecution(ctx, execution))

	transport := &recordingTransport{}
	executor := workflow.NewExecutor(store, capability.NewInvoker(transport, "test-model"), logging.NewNop())
	require.NoError(t, executor.Execute(ctx, stored[0].ID, execution.ID, result.User.ID))

	require.Len(t, transport.requests, 2)
	analysis := transport.requests[0]
	require.NotEmpty(t, analysis.Messages)
	assert.Contains(t, analysis.Messages[0].Content, "Perform general analysis")
	assert.Nil(t, analysis.Temperature)
	assert.Zero(t, analysis.MaxTokens)

	chat := transport.requests[1]
	assert.Equal(t, capability.DefaultChatModel, chat.Model)
	assert.Nil(t, chat.Temperature)
	assert.Zero(t, chat.MaxTokens)
}
