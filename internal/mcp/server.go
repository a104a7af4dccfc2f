package mcp

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ai-workflow-hub/backend/internal/auth"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/services"
	"ai-workflow-hub/backend/pkg/models"
)

// Server exposes workflow runs as MCP tools. Every tool acts as the user
// authenticated on the HTTP request.
type Server struct {
	mcpServer  *server.MCPServer
	repo       repository.Repository
	executions *services.ExecutionService
}

func NewServer(repo repository.Repository, executions *services.ExecutionService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"AI Workflow Hub",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		repo:       repo,
		executions: executions,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List your workflows"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_workflow",
			mcp.WithDescription("Start a workflow run. Returns the execution record; poll get_execution for progress"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The ID of the workflow")),
		),
		s.handleRunWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_execution",
			mcp.WithDescription("Get an execution record with its log"),
			mcp.WithString("execution_id", mcp.Required(), mcp.Description("The ID of the execution")),
		),
		s.handleGetExecution,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_capabilities",
			mcp.WithDescription("List the AI capabilities workflow nodes can use"),
		),
		s.handleListCapabilities,
	)
}

func stringArg(request mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", mcp.NewToolResultError("Invalid arguments type")
	}
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", mcp.NewToolResultError("Missing required parameter: " + name)
	}
	return value, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("Not authenticated"), nil
	}

	workflows, err := s.repo.ListWorkflows(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}
	return jsonResult(workflows)
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("Not authenticated"), nil
	}
	workflowID, errResult := stringArg(request, "workflow_id")
	if errResult != nil {
		return errResult, nil
	}

	execution, err := s.executions.Trigger(ctx, workflowID, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run workflow: %v", err)), nil
	}
	return jsonResult(execution)
}

func (s *Server) handleGetExecution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("Not authenticated"), nil
	}
	executionID, errResult := stringArg(request, "execution_id")
	if errResult != nil {
		return errResult, nil
	}

	execution, err := s.executions.Get(ctx, executionID, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get execution: %v", err)), nil
	}
	return jsonResult(execution)
}

func (s *Server) handleListCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.repo.ListCapabilities(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list capabilities: %v", err)), nil
	}
	active := make([]*models.Capability, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return jsonResult(active)
}

// withUser carries the authenticated user from the HTTP request into the tool
// call context.
func withUser(ctx context.Context, r *http.Request) context.Context {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return auth.WithUserID(ctx, userID)
	}
	return ctx
}

// MountHTTPHandlers serves streamable HTTP on /mcp and the SSE transport on
// /mcp/sse and /mcp/message.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer,
		server.WithStaticBasePath("/mcp"),
		server.WithSSEContextFunc(withUser),
	)
	streamable := server.NewStreamableHTTPServer(mcpServer,
		server.WithHTTPContextFunc(withUser),
	)

	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
