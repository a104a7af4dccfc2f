package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"ai-workflow-hub/backend/pkg/models"
)

// WorkflowInput is the body of a workflow create request.
type WorkflowInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Nodes       []models.Node         `json:"nodes"`
	Edges       []models.Edge         `json:"edges"`
	Status      models.WorkflowStatus `json:"status"`
}

// WorkflowUpdate is the body of a workflow update request. Absent fields are
// left unchanged.
type WorkflowUpdate struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Nodes       *[]models.Node         `json:"nodes"`
	Edges       *[]models.Edge         `json:"edges"`
	Status      *models.WorkflowStatus `json:"status"`
}

func validStatus(status models.WorkflowStatus) bool {
	switch status {
	case models.WorkflowStatusDraft, models.WorkflowStatusActive,
		models.WorkflowStatusCompleted, models.WorkflowStatusFailed:
		return true
	}
	return false
}

// ownedWorkflow loads a workflow, hiding other users' workflows as missing.
func (s *Server) ownedWorkflow(c echo.Context, id openapi_types.UUID) (*models.Workflow, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	wf, err := s.repo.GetWorkflow(c.Request().Context(), id.String())
	if err != nil {
		return nil, storeError(err, "Workflow")
	}
	if wf.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	return wf, nil
}

// ListWorkflows returns the caller's workflows
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	workflows, err := s.repo.ListWorkflows(c.Request().Context(), userID)
	if err != nil {
		return storeError(err, "Workflow")
	}
	return c.JSON(http.StatusOK, workflows)
}

// CreateWorkflow stores a new workflow owned by the caller
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in WorkflowInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Name == "" || in.Nodes == nil || in.Edges == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "name, nodes and edges are required")
	}
	if in.Status != "" && !validStatus(in.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status: "+string(in.Status))
	}

	wf := &models.Workflow{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Nodes:       in.Nodes,
		Edges:       in.Edges,
		Status:      in.Status,
	}
	if err := s.repo.CreateWorkflow(c.Request().Context(), wf); err != nil {
		return storeError(err, "Workflow")
	}
	return c.JSON(http.StatusCreated, wf)
}

// GetWorkflow returns one workflow
// (GET /api/v1/workflows/{id})
func (s *Server) GetWorkflow(c echo.Context, id openapi_types.UUID) error {
	wf, err := s.ownedWorkflow(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wf)
}

// UpdateWorkflow applies a partial update
// (PUT /api/v1/workflows/{id})
func (s *Server) UpdateWorkflow(c echo.Context, id openapi_types.UUID) error {
	wf, err := s.ownedWorkflow(c, id)
	if err != nil {
		return err
	}

	var in WorkflowUpdate
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name must not be empty")
		}
		wf.Name = *in.Name
	}
	if in.Description != nil {
		wf.Description = *in.Description
	}
	if in.Nodes != nil {
		wf.Nodes = *in.Nodes
	}
	if in.Edges != nil {
		wf.Edges = *in.Edges
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status: "+string(*in.Status))
		}
		wf.Status = *in.Status
	}

	if err := s.repo.UpdateWorkflow(c.Request().Context(), wf); err != nil {
		return storeError(err, "Workflow")
	}
	return c.JSON(http.StatusOK, wf)
}

// DeleteWorkflow removes a workflow and its executions
// (DELETE /api/v1/workflows/{id})
func (s *Server) DeleteWorkflow(c echo.Context, id openapi_types.UUID) error {
	wf, err := s.ownedWorkflow(c, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWorkflow(c.Request().Context(), wf.ID); err != nil {
		return storeError(err, "Workflow")
	}
	return c.NoContent(http.StatusNoContent)
}
