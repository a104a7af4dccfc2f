package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-workflow-hub/backend/internal/auth"
	"ai-workflow-hub/backend/internal/capability"
	"ai-workflow-hub/backend/internal/logging"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/services"
	"ai-workflow-hub/backend/internal/workflow"
	"ai-workflow-hub/backend/pkg/models"
)

const testUserHeader = "X-Test-User"

type testAPI struct {
	e          *echo.Echo
	store      *repository.BadgerStore
	supervisor *services.RunSupervisor
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := repository.OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logging.NewNop()
	executor := workflow.NewExecutor(store, capability.NewInvoker(capability.EchoTransport{}, "test-model"), logger)
	supervisor := services.NewRunSupervisor(executor, logger)
	server := NewServer(store, services.NewExecutionService(store, executor, supervisor), logger)

	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	e.HTTPErrorHandler = ProblemHandler(logger)
	e.GET("/health", server.Health)

	group := e.Group("/api/v1")
	group.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user := c.Request().Header.Get(testUserHeader); user != "" {
				c.SetRequest(c.Request().WithContext(auth.WithUserID(c.Request().Context(), user)))
			}
			return next(c)
		}
	})
	RegisterHandlers(group, server)

	return &testAPI{e: e, store: store, supervisor: supervisor}
}

func (a *testAPI) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(b)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestWorkflowCRUD(t *testing.T) {
	api := newTestAPI(t)
	owner, other := uuid.NewString(), uuid.NewString()

	rec := api.do(t, http.MethodPost, "/api/v1/workflows", owner, map[string]interface{}{
		"name":  "Pipeline",
		"nodes": []models.Node{{ID: "n1", Data: models.NodeData{Label: "Start"}}},
		"edges": []models.Edge{},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Workflow](t, rec)
	assert.Equal(t, owner, created.UserID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)

	rec = api.do(t, http.MethodGet, "/api/v1/workflows", owner, nil)
	assert.Len(t, decode[[]models.Workflow](t, rec), 1)
	rec = api.do(t, http.MethodGet, "/api/v1/workflows", other, nil)
	assert.Empty(t, decode[[]models.Workflow](t, rec))

	path := "/api/v1/workflows/" + created.ID
	rec = api.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPut, path, owner, map[string]interface{}{"name": "Renamed", "status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Workflow](t, rec)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.WorkflowStatusActive, updated.Status)
	assert.Len(t, updated.Nodes, 1)

	rec = api.do(t, http.MethodPut, path, owner, map[string]interface{}{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWorkflowValidation(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.NewString()

	rec := api.do(t, http.MethodPost, "/api/v1/workflows", user, map[string]interface{}{"name": "No graph"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
	problem := decode[models.ProblemDetails](t, rec)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "name, nodes and edges are required", problem.Detail)
	assert.Equal(t, "/api/v1/workflows", problem.Instance)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(testUserHeader, user)
	rec = httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/workflows/not-a-uuid", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/workflows", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExecuteWorkflow(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	owner, other := uuid.NewString(), uuid.NewString()

	summarize := &models.Capability{Name: "Text Summarizer", OperationType: "summarization", IsActive: true}
	require.NoError(t, api.store.CreateCapability(ctx, summarize))

	rec := api.do(t, http.MethodPost, "/api/v1/workflows", owner, map[string]interface{}{
		"name": "Summarize",
		"nodes": []models.Node{
			{ID: "n1", Data: models.NodeData{Label: "Summarize", CapabilityID: summarize.ID}},
		},
		"edges": []models.Edge{},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wf := decode[models.Workflow](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/execute", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/execute", owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decode[models.Execution](t, rec)
	assert.Equal(t, models.ExecutionStatusRunning, started.Status)
	assert.Equal(t, wf.ID, started.WorkflowID)

	require.NoError(t, api.supervisor.Shutdown(ctx))

	rec = api.do(t, http.MethodGet, "/api/v1/executions/"+started.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	finished := decode[models.Execution](t, rec)
	assert.Equal(t, models.ExecutionStatusCompleted, finished.Status)
	assert.NotNil(t, finished.CompletedAt)

	rec = api.do(t, http.MethodGet, "/api/v1/executions/"+started.ID+"/logs", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[ExecutionLogs](t, rec)
	require.Len(t, logs.Logs, 4)
	assert.Equal(t, "Starting workflow: Summarize", logs.Logs[0].Message)

	rec = api.do(t, http.MethodGet, "/api/v1/executions/"+started.ID+"/logs", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/executions/"+uuid.NewString(), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/workflows/"+wf.ID+"/executions", owner, nil)
	assert.Len(t, decode[[]models.Execution](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/api/v1/artifacts", owner, nil)
	artifacts := decode[[]models.Artifact](t, rec)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "n1", artifacts[0].Metadata["nodeId"])
	assert.Equal(t, "Text Summarizer", artifacts[0].Metadata["capabilityName"])
}

func TestArtifacts(t *testing.T) {
	api := newTestAPI(t)
	owner, other := uuid.NewString(), uuid.NewString()

	rec := api.do(t, http.MethodPost, "/api/v1/artifacts", owner, map[string]interface{}{
		"type":    "text",
		"format":  "text/plain",
		"content": "seed text",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	artifact := decode[models.Artifact](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/artifacts", owner, map[string]interface{}{"type": "hologram", "format": "x", "content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/v1/artifacts", owner, map[string]interface{}{"type": "text", "format": "text/plain"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/v1/artifacts/" + artifact.ID
	rec = api.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, "seed text", decode[models.Artifact](t, rec).Content)
	rec = api.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/artifacts", owner, nil)
	assert.Empty(t, decode[[]models.Artifact](t, rec))
}

func TestCapabilities(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	user := uuid.NewString()

	active := &models.Capability{Name: "Chat Assistant", OperationType: "chat", IsActive: true}
	retired := &models.Capability{Name: "Old Model", OperationType: "chat"}
	require.NoError(t, api.store.CreateCapability(ctx, active))
	require.NoError(t, api.store.CreateCapability(ctx, retired))

	rec := api.do(t, http.MethodGet, "/api/v1/capabilities", user, nil)
	list := decode[[]models.Capability](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Chat Assistant", list[0].Name)

	rec = api.do(t, http.MethodGet, "/api/v1/capabilities/"+retired.ID, user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/capabilities/"+uuid.NewString(), user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.HealthStatus](t, rec)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ok", status.Checks["storage"])
}

func TestSpecHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	SpecHandler("https://issuer.example.com/oauth2/default")(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://issuer.example.com/oauth2/default/v1/authorize")
	assert.NotContains(t, rec.Body.String(), "{oktaIssuer}")

	rec = httptest.NewRecorder()
	SwaggerHandler("https://issuer.example.com", "swagger-client")(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Contains(t, rec.Body.String(), `clientId: "swagger-client"`)
	assert.Contains(t, rec.Body.String(), "workflows:write")
}
