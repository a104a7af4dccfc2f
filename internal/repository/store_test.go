package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-workflow-hub/backend/pkg/models"
)

// testRepository exercises the behaviour every Repository implementation
// must share.
func testRepository(t *testing.T, store Repository) {
	ctx := context.Background()

	user := &models.User{Email: "owner-" + uuid.NewString() + "@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))

	t.Run("Users", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, models.UserRoleUser, got.Role)

		_, err = store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.Error(t, store.CreateUser(ctx, &models.User{Email: user.Email}))
	})

	t.Run("Workflows", func(t *testing.T) {
		workflow := &models.Workflow{
			UserID: user.ID,
			Name:   "Pipeline",
			Nodes: []models.Node{
				{ID: "n1", Type: "capability", Data: models.NodeData{Label: "Summarize", Parameters: map[string]interface{}{"maxTokens": float64(100)}}},
			},
			Edges: []models.Edge{{ID: "e1", Source: "n1", Target: "n2"}},
		}
		require.NoError(t, store.CreateWorkflow(ctx, workflow))
		assert.NotEmpty(t, workflow.ID)
		assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)

		got, err := store.GetWorkflow(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pipeline", got.Name)
		assert.Equal(t, workflow.Nodes, got.Nodes)
		assert.Equal(t, workflow.Edges, got.Edges)

		got.Name = "Renamed"
		got.Status = models.WorkflowStatusActive
		require.NoError(t, store.UpdateWorkflow(ctx, got))
		updated, err := store.GetWorkflow(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, models.WorkflowStatusActive, updated.Status)
		assert.Equal(t, user.ID, updated.UserID)

		list, err := store.ListWorkflows(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		other, err := store.ListWorkflows(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, other)

		_, err = store.GetWorkflow(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.UpdateWorkflow(ctx, &models.Workflow{ID: uuid.NewString()}), ErrNotFound)
	})

	t.Run("Capabilities", func(t *testing.T) {
		capability := &models.Capability{
			Name:          "Text Summarizer",
			Category:      models.CategoryNLP,
			OperationType: "summarization",
			InputFormats:  []string{"text"},
			OutputFormats: []string{"text"},
			Parameters:    map[string]interface{}{"maxLength": float64(150)},
			IsActive:      true,
		}
		require.NoError(t, store.CreateCapability(ctx, capability))

		got, err := store.GetCapability(ctx, capability.ID)
		require.NoError(t, err)
		assert.Equal(t, "summarization", got.OperationType)
		assert.Equal(t, float64(150), got.Parameters["maxLength"])

		list, err := store.ListCapabilities(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, list)

		_, err = store.GetCapability(ctx, "summarize")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Artifacts", func(t *testing.T) {
		artifact := &models.Artifact{
			UserID:   user.ID,
			Type:     models.ArtifactTypeText,
			Format:   "text/plain",
			Content:  "hello",
			Metadata: map[string]interface{}{"nodeId": "n1"},
		}
		require.NoError(t, store.CreateArtifact(ctx, artifact))

		got, err := store.GetArtifact(ctx, artifact.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Content)
		assert.Equal(t, "n1", got.Metadata["nodeId"])

		list, err := store.ListArtifacts(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, store.DeleteArtifact(ctx, artifact.ID))
		_, err = store.GetArtifact(ctx, artifact.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteArtifact(ctx, artifact.ID), ErrNotFound)
	})

	t.Run("Executions", func(t *testing.T) {
		workflow := &models.Workflow{UserID: user.ID, Name: "Runs"}
		require.NoError(t, store.CreateWorkflow(ctx, workflow))

		execution := &models.Execution{WorkflowID: workflow.ID}
		require.NoError(t, store.CreateExecution(ctx, execution))
		assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
		assert.Nil(t, execution.CompletedAt)

		running, err := store.CountExecutions(ctx, models.ExecutionStatusRunning)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, running, 1)

		logs := []models.LogEntry{
			{Timestamp: time.Now().UTC(), NodeID: models.RunLogNodeID, Status: models.LogStatusStarted, Message: "Starting workflow: Runs"},
			{Timestamp: time.Now().UTC(), NodeID: "n1", Status: models.LogStatusCompleted, Message: "Node completed successfully", Data: map[string]interface{}{"resultLength": float64(5)}},
		}
		require.NoError(t, store.UpdateExecutionLogs(ctx, execution.ID, logs))
		require.NoError(t, store.FinishExecution(ctx, execution.ID, models.ExecutionStatusCompleted, time.Now()))

		got, err := store.GetExecution(ctx, execution.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		require.Len(t, got.Logs, 2)
		assert.Equal(t, "n1", got.Logs[1].NodeID)
		assert.Equal(t, float64(5), got.Logs[1].Data["resultLength"])

		list, err := store.ListExecutions(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		missing := uuid.NewString()
		assert.ErrorIs(t, store.UpdateExecutionLogs(ctx, missing, logs), ErrNotFound)
		assert.ErrorIs(t, store.FinishExecution(ctx, missing, models.ExecutionStatusFailed, time.Now()), ErrNotFound)

		require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))
		_, err = store.GetExecution(ctx, execution.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteWorkflow(ctx, workflow.ID), ErrNotFound)
	})

	assert.NoError(t, store.Ping(ctx))
}
