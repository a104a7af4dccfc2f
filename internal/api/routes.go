package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// List the caller's workflows
	// (GET /workflows)
	ListWorkflows(ctx echo.Context) error
	// Create a workflow
	// (POST /workflows)
	CreateWorkflow(ctx echo.Context) error
	// Delete a workflow and its executions
	// (DELETE /workflows/{id})
	DeleteWorkflow(ctx echo.Context, id openapi_types.UUID) error
	// Get a workflow
	// (GET /workflows/{id})
	GetWorkflow(ctx echo.Context, id openapi_types.UUID) error
	// Update a workflow
	// (PUT /workflows/{id})
	UpdateWorkflow(ctx echo.Context, id openapi_types.UUID) error
	// Start a workflow run
	// (POST /workflows/{id}/execute)
	ExecuteWorkflow(ctx echo.Context, id openapi_types.UUID) error
	// List the runs of a workflow
	// (GET /workflows/{id}/executions)
	ListWorkflowExecutions(ctx echo.Context, id openapi_types.UUID) error
	// Get an execution record
	// (GET /executions/{id})
	GetExecution(ctx echo.Context, id openapi_types.UUID) error
	// Get the log of an execution
	// (GET /executions/{id}/logs)
	GetExecutionLogs(ctx echo.Context, id openapi_types.UUID) error
	// List the caller's artifacts
	// (GET /artifacts)
	ListArtifacts(ctx echo.Context) error
	// Create an artifact
	// (POST /artifacts)
	CreateArtifact(ctx echo.Context) error
	// Delete an artifact
	// (DELETE /artifacts/{id})
	DeleteArtifact(ctx echo.Context, id openapi_types.UUID) error
	// Get an artifact
	// (GET /artifacts/{id})
	GetArtifact(ctx echo.Context, id openapi_types.UUID) error
	// List active capabilities
	// (GET /capabilities)
	ListCapabilities(ctx echo.Context) error
	// Get a capability
	// (GET /capabilities/{id})
	GetCapability(ctx echo.Context, id openapi_types.UUID) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// bindID binds the "id" path parameter.
func bindID(ctx echo.Context) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

// withID adapts a handler taking an id path parameter.
func withID(h func(echo.Context, openapi_types.UUID) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := bindID(ctx)
		if err != nil {
			return err
		}
		return h(ctx, id)
	}
}

// ListWorkflows converts echo context to params.
func (w *ServerInterfaceWrapper) ListWorkflows(ctx echo.Context) error {
	return w.Handler.ListWorkflows(ctx)
}

// CreateWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) CreateWorkflow(ctx echo.Context) error {
	return w.Handler.CreateWorkflow(ctx)
}

// ListArtifacts converts echo context to params.
func (w *ServerInterfaceWrapper) ListArtifacts(ctx echo.Context) error {
	return w.Handler.ListArtifacts(ctx)
}

// CreateArtifact converts echo context to params.
func (w *ServerInterfaceWrapper) CreateArtifact(ctx echo.Context) error {
	return w.Handler.CreateArtifact(ctx)
}

// ListCapabilities converts echo context to params.
func (w *ServerInterfaceWrapper) ListCapabilities(ctx echo.Context) error {
	return w.Handler.ListCapabilities(ctx)
}

// EchoRouter is the subset of *echo.Echo and *echo.Group used for
// registration.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the handlers under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/workflows", wrapper.ListWorkflows)
	router.POST(baseURL+"/workflows", wrapper.CreateWorkflow)
	router.DELETE(baseURL+"/workflows/:id", withID(si.DeleteWorkflow))
	router.GET(baseURL+"/workflows/:id", withID(si.GetWorkflow))
	router.PUT(baseURL+"/workflows/:id", withID(si.UpdateWorkflow))
	router.POST(baseURL+"/workflows/:id/execute", withID(si.ExecuteWorkflow))
	router.GET(baseURL+"/workflows/:id/executions", withID(si.ListWorkflowExecutions))
	router.GET(baseURL+"/executions/:id", withID(si.GetExecution))
	router.GET(baseURL+"/executions/:id/logs", withID(si.GetExecutionLogs))
	router.GET(baseURL+"/artifacts", wrapper.ListArtifacts)
	router.POST(baseURL+"/artifacts", wrapper.CreateArtifact)
	router.DELETE(baseURL+"/artifacts/:id", withID(si.DeleteArtifact))
	router.GET(baseURL+"/artifacts/:id", withID(si.GetArtifact))
	router.GET(baseURL+"/capabilities", wrapper.ListCapabilities)
	router.GET(baseURL+"/capabilities/:id", withID(si.GetCapability))
}
