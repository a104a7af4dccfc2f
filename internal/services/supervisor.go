package services

import (
	"context"
	"errors"
	"sync"
)

// ErrSupervisorClosed is returned by Start after Shutdown has begun.
var ErrSupervisorClosed = errors.New("run supervisor is shut down")

// RunFailure reports a detached run that ended in error.
type RunFailure struct {
	WorkflowID  string
	ExecutionID string
	Err         error
}

// RunSupervisor runs workflows in the background, detached from the request
// that triggered them. Failures are sent on an internal channel and logged by
// a single drain goroutine.
type RunSupervisor struct {
	runner Runner
	logger Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	failures chan RunFailure
	drained  chan struct{}
}

// NewRunSupervisor creates a supervisor and starts draining its failures.
func NewRunSupervisor(runner Runner, logger Logger) *RunSupervisor {
	s := &RunSupervisor{
		runner:   runner,
		logger:   logger,
		failures: make(chan RunFailure, 16),
		drained:  make(chan struct{}),
	}
	go s.drain()
	return s
}

// Start launches a run. The run keeps ctx's values but not its cancellation,
// so it outlives the triggering request.
func (s *RunSupervisor) Start(ctx context.Context, workflowID, executionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSupervisorClosed
	}

	runCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.logger.Info("Workflow run started", "workflow_id", workflowID, "execution_id", executionID)
		if err := s.runner.Execute(runCtx, workflowID, executionID, userID); err != nil {
			s.failures <- RunFailure{WorkflowID: workflowID, ExecutionID: executionID, Err: err}
			return
		}
		s.logger.Info("Workflow run completed", "workflow_id", workflowID, "execution_id", executionID)
	}()
	return nil
}

func (s *RunSupervisor) drain() {
	defer close(s.drained)
	for f := range s.failures {
		s.logger.Error("Workflow run failed",
			"workflow_id", f.WorkflowID,
			"execution_id", f.ExecutionID,
			"error", f.Err,
		)
	}
}

// Shutdown stops accepting runs and waits for in-flight runs to finish. If ctx
// ends first, the remaining runs are abandoned and their records stay running.
func (s *RunSupervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(s.failures)
		<-s.drained
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
