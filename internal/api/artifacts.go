package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"ai-workflow-hub/backend/pkg/models"
)

// ArtifactInput is the body of an artifact create request.
type ArtifactInput struct {
	Type      models.ArtifactType    `json:"type"`
	Format    string                 `json:"format"`
	Content   *string                `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	SourceURL *string                `json:"sourceUrl"`
}

func validArtifactType(t models.ArtifactType) bool {
	switch t {
	case models.ArtifactTypeText, models.ArtifactTypeImage, models.ArtifactTypeAudio,
		models.ArtifactTypeVideo, models.ArtifactTypeCode, models.ArtifactTypeDocument:
		return true
	}
	return false
}

func (s *Server) ownedArtifact(c echo.Context, id openapi_types.UUID) (*models.Artifact, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	artifact, err := s.repo.GetArtifact(c.Request().Context(), id.String())
	if err != nil {
		return nil, storeError(err, "Artifact")
	}
	if artifact.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Artifact not found")
	}
	return artifact, nil
}

// ListArtifacts returns the caller's artifacts, newest first
// (GET /api/v1/artifacts)
func (s *Server) ListArtifacts(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	artifacts, err := s.repo.ListArtifacts(c.Request().Context(), userID)
	if err != nil {
		return storeError(err, "Artifact")
	}
	return c.JSON(http.StatusOK, artifacts)
}

// CreateArtifact stores uploaded content
// (POST /api/v1/artifacts)
func (s *Server) CreateArtifact(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in ArtifactInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if !validArtifactType(in.Type) || in.Format == "" || in.Content == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "type, format and content are required")
	}

	artifact := &models.Artifact{
		UserID:    userID,
		Type:      in.Type,
		Format:    in.Format,
		Content:   *in.Content,
		Metadata:  in.Metadata,
		SourceURL: in.SourceURL,
	}
	if err := s.repo.CreateArtifact(c.Request().Context(), artifact); err != nil {
		return storeError(err, "Artifact")
	}
	return c.JSON(http.StatusCreated, artifact)
}

// GetArtifact returns one artifact
// (GET /api/v1/artifacts/{id})
func (s *Server) GetArtifact(c echo.Context, id openapi_types.UUID) error {
	artifact, err := s.ownedArtifact(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, artifact)
}

// DeleteArtifact removes an artifact
// (DELETE /api/v1/artifacts/{id})
func (s *Server) DeleteArtifact(c echo.Context, id openapi_types.UUID) error {
	artifact, err := s.ownedArtifact(c, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteArtifact(c.Request().Context(), artifact.ID); err != nil {
		return storeError(err, "Artifact")
	}
	return c.NoContent(http.StatusNoContent)
}
