// Package api contains the HTTP handlers for the workflow service
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"ai-workflow-hub/backend/internal/auth"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/services"
	"ai-workflow-hub/backend/pkg/models"
)

const (
	serviceName    = "ai-workflow-hub"
	serviceVersion = "1.0.0"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server holds the dependencies for the API server.
type Server struct {
	repo       repository.Repository
	executions *services.ExecutionService
	logger     Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a new Server.
func NewServer(repo repository.Repository, executions *services.ExecutionService, logger Logger) *Server {
	return &Server{
		repo:       repo,
		executions: executions,
		logger:     logger,
	}
}

// Health reports service status and storage connectivity
// (GET /health)
func (s *Server) Health(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"storage": "ok"},
	}
	code := http.StatusOK
	if err := s.repo.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Checks["storage"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// currentUser returns the id injected by the auth middleware.
func currentUser(c echo.Context) (string, error) {
	userID, ok := auth.UserIDFromContext(c.Request().Context())
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User ID not found in context")
	}
	return userID, nil
}

// storeError maps repository and service errors to HTTP errors.
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

// ProblemHandler renders every error as an RFC 7807 Problem Details body.
func ProblemHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		detail := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			detail = fmt.Sprint(he.Message)
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}

		problem := models.ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(code),
			Status:   code,
			Detail:   detail,
			Instance: c.Request().URL.Path,
		}
		if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
			problem.TraceID = sc.TraceID().String()
		}

		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, problem)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

// JSONSerializer is an echo.JSONSerializer backed by goccy/go-json.
type JSONSerializer struct{}

// Serialize encodes i as the response body.
func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize decodes the request body into i.
func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error()).SetInternal(err)
	}
	return nil
}
