package repository

import (
	"context"
	"errors"
	"time"

	"ai-workflow-hub/backend/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore resolves and provisions accounts.
type UserStore interface {
	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser saves a new user, assigning its ID when empty.
	CreateUser(ctx context.Context, user *models.User) error
}

// WorkflowStore persists workflow definitions.
type WorkflowStore interface {
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	// ListWorkflows returns the workflows owned by userID, oldest first.
	ListWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// CapabilityStore persists the capability catalogue.
type CapabilityStore interface {
	CreateCapability(ctx context.Context, capability *models.Capability) error
	GetCapability(ctx context.Context, id string) (*models.Capability, error)
	ListCapabilities(ctx context.Context) ([]*models.Capability, error)
}

// ArtifactStore persists artifacts. Artifacts are never updated.
type ArtifactStore interface {
	CreateArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifact(ctx context.Context, id string) (*models.Artifact, error)
	ListArtifacts(ctx context.Context, userID string) ([]*models.Artifact, error)
	DeleteArtifact(ctx context.Context, id string) error
}

// ExecutionStore persists execution records. Each update rewrites a single
// record atomically.
type ExecutionStore interface {
	CreateExecution(ctx context.Context, execution *models.Execution) error
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
	// ListExecutions returns the executions of a workflow, newest first.
	ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error)
	// UpdateExecutionLogs replaces the log array of an execution.
	UpdateExecutionLogs(ctx context.Context, id string, logs []models.LogEntry) error
	// FinishExecution sets the terminal status and completion time.
	FinishExecution(ctx context.Context, id string, status models.ExecutionStatus, completedAt time.Time) error
	// CountExecutions counts executions currently in status.
	CountExecutions(ctx context.Context, status models.ExecutionStatus) (int, error)
}

// Repository is the full persistence surface of the service.
type Repository interface {
	UserStore
	WorkflowStore
	CapabilityStore
	ArtifactStore
	ExecutionStore

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
	// Close releases the backing store.
	Close() error
}
