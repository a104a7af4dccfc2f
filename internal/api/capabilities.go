package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"ai-workflow-hub/backend/pkg/models"
)

// ListCapabilities returns the active capabilities
// (GET /api/v1/capabilities)
func (s *Server) ListCapabilities(c echo.Context) error {
	all, err := s.repo.ListCapabilities(c.Request().Context())
	if err != nil {
		return storeError(err, "Capability")
	}
	active := make([]*models.Capability, 0, len(all))
	for _, capability := range all {
		if capability.IsActive {
			active = append(active, capability)
		}
	}
	return c.JSON(http.StatusOK, active)
}

// GetCapability returns one capability
// (GET /api/v1/capabilities/{id})
func (s *Server) GetCapability(c echo.Context, id openapi_types.UUID) error {
	capability, err := s.repo.GetCapability(c.Request().Context(), id.String())
	if err != nil {
		return storeError(err, "Capability")
	}
	return c.JSON(http.StatusOK, capability)
}
