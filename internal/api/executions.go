package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"ai-workflow-hub/backend/pkg/models"
)

// ExecutionLogs is the body of the execution log endpoint.
type ExecutionLogs struct {
	Logs []models.LogEntry `json:"logs"`
}

// ExecuteWorkflow starts a run and returns its record while the run
// continues in the background
// (POST /api/v1/workflows/{id}/execute)
func (s *Server) ExecuteWorkflow(c echo.Context, id openapi_types.UUID) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	execution, err := s.executions.Trigger(c.Request().Context(), id.String(), userID)
	if err != nil {
		return storeError(err, "Workflow")
	}
	s.logger.Info("Workflow execution started", "workflow_id", execution.WorkflowID, "execution_id", execution.ID)
	return c.JSON(http.StatusCreated, execution)
}

// ListWorkflowExecutions returns a workflow's runs, newest first
// (GET /api/v1/workflows/{id}/executions)
func (s *Server) ListWorkflowExecutions(c echo.Context, id openapi_types.UUID) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	executions, err := s.executions.List(c.Request().Context(), id.String(), userID)
	if err != nil {
		return storeError(err, "Workflow")
	}
	return c.JSON(http.StatusOK, executions)
}

// GetExecution returns an execution record
// (GET /api/v1/executions/{id})
func (s *Server) GetExecution(c echo.Context, id openapi_types.UUID) error {
	execution, err := s.execution(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, execution)
}

// GetExecutionLogs returns only the log of an execution
// (GET /api/v1/executions/{id}/logs)
func (s *Server) GetExecutionLogs(c echo.Context, id openapi_types.UUID) error {
	execution, err := s.execution(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ExecutionLogs{Logs: execution.Logs})
}

func (s *Server) execution(c echo.Context, id openapi_types.UUID) (*models.Execution, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	execution, err := s.executions.Get(c.Request().Context(), id.String(), userID)
	if err != nil {
		return nil, storeError(err, "Execution")
	}
	return execution, nil
}
