package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/pkg/models"
)

// ErrForbidden is returned when a record belongs to another user.
var ErrForbidden = errors.New("forbidden")

// ExecutionService triggers workflow runs and reads their records.
type ExecutionService struct {
	store      repository.Repository
	runner     Runner
	supervisor *RunSupervisor
}

// NewExecutionService creates a new ExecutionService.
func NewExecutionService(store repository.Repository, runner Runner, supervisor *RunSupervisor) *ExecutionService {
	return &ExecutionService{
		store:      store,
		runner:     runner,
		supervisor: supervisor,
	}
}

// ownedWorkflow loads a workflow and hides it from anyone but its owner.
func (s *ExecutionService) ownedWorkflow(ctx context.Context, workflowID, userID string) (*models.Workflow, error) {
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return wf, nil
}

// Trigger creates a running execution record for workflowID and starts the run
// in the background. The returned record is the freshly created one.
func (s *ExecutionService) Trigger(ctx context.Context, workflowID, userID string) (*models.Execution, error) {
	wf, err := s.ownedWorkflow(ctx, workflowID, userID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, wf, userID)
}

func (s *ExecutionService) start(ctx context.Context, wf *models.Workflow, userID string) (*models.Execution, error) {
	execution := &models.Execution{WorkflowID: wf.ID}
	if err := s.store.CreateExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}
	snapshot := *execution

	if err := s.supervisor.Start(ctx, wf.ID, execution.ID, userID); err != nil {
		if ferr := s.abandon(ctx, execution.ID, err); ferr != nil {
			err = errors.Join(err, ferr)
		}
		return nil, err
	}
	return &snapshot, nil
}

// abandon fails a record whose run never started, leaving the reason in its
// log.
func (s *ExecutionService) abandon(ctx context.Context, executionID string, cause error) error {
	now := time.Now().UTC()
	entry := models.LogEntry{
		Timestamp: now,
		NodeID:    models.RunLogNodeID,
		Status:    models.LogStatusFailed,
		Message:   "Workflow failed: " + cause.Error(),
	}
	logErr := s.store.UpdateExecutionLogs(ctx, executionID, []models.LogEntry{entry})
	return errors.Join(logErr, s.store.FinishExecution(ctx, executionID, models.ExecutionStatusFailed, now))
}

// Run creates an execution record and executes the workflow synchronously.
// The final record is returned together with the run's error.
func (s *ExecutionService) Run(ctx context.Context, workflowID, userID string) (*models.Execution, error) {
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = wf.UserID
	}

	execution := &models.Execution{WorkflowID: wf.ID}
	if err := s.store.CreateExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	runErr := s.runner.Execute(ctx, wf.ID, execution.ID, userID)
	final, err := s.store.GetExecution(ctx, execution.ID)
	if err != nil {
		return nil, errors.Join(runErr, err)
	}
	return final, runErr
}

// Get returns an execution record if its workflow belongs to userID.
func (s *ExecutionService) Get(ctx context.Context, executionID, userID string) (*models.Execution, error) {
	execution, err := s.store.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	wf, err := s.store.GetWorkflow(ctx, execution.WorkflowID)
	if err != nil {
		return nil, err
	}
	if wf.UserID != userID {
		return nil, ErrForbidden
	}
	return execution, nil
}

// List returns the executions of a workflow owned by userID, newest first.
func (s *ExecutionService) List(ctx context.Context, workflowID, userID string) ([]*models.Execution, error) {
	if _, err := s.ownedWorkflow(ctx, workflowID, userID); err != nil {
		return nil, err
	}
	return s.store.ListExecutions(ctx, workflowID)
}

// StaleRuns counts executions still marked running. Right after start-up
// these are runs a previous process never finished.
func (s *ExecutionService) StaleRuns(ctx context.Context) (int, error) {
	return s.store.CountExecutions(ctx, models.ExecutionStatusRunning)
}
