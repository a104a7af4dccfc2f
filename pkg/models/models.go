// Package models defines the domain models for the workflow service
package models

import (
	"time"
)

// UserRole represents the role of an account
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleDeveloper UserRole = "developer"
	UserRoleAnalyst   UserRole = "analyst"
	UserRoleUser      UserRole = "user"
)

// User is an account that owns workflows and artifacts
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CapabilityCategory groups capabilities in the catalogue
type CapabilityCategory string

const (
	CategoryNLP        CapabilityCategory = "NLP"
	CategoryCV         CapabilityCategory = "CV"
	CategoryGeneration CapabilityCategory = "generation"
	CategoryAnalytics  CapabilityCategory = "analytics"
	CategoryAudio      CapabilityCategory = "audio"
	CategoryOther      CapabilityCategory = "other"
)

// Capability is a declared AI operation a workflow node can be bound to.
// OperationType selects the behaviour; Parameters are the defaults a node
// may override.
type Capability struct {
	ID            string                 `json:"id" db:"id"`
	Name          string                 `json:"name" db:"name"`
	Description   string                 `json:"description,omitempty" db:"description"`
	Category      CapabilityCategory     `json:"category" db:"category"`
	OperationType string                 `json:"operationType" db:"operation_type"`
	InputFormats  []string               `json:"inputFormats" db:"input_formats"`   // JSONB
	OutputFormats []string               `json:"outputFormats" db:"output_formats"` // JSONB
	Parameters    map[string]interface{} `json:"parameters,omitempty" db:"parameters"`
	IsActive      bool                   `json:"isActive" db:"is_active"`
	CreatedAt     time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time              `json:"updatedAt" db:"updated_at"`
}

// ArtifactType represents the kind of content an artifact holds
type ArtifactType string

const (
	ArtifactTypeText     ArtifactType = "text"
	ArtifactTypeImage    ArtifactType = "image"
	ArtifactTypeAudio    ArtifactType = "audio"
	ArtifactTypeVideo    ArtifactType = "video"
	ArtifactTypeCode     ArtifactType = "code"
	ArtifactTypeDocument ArtifactType = "document"
)

// Artifact is a persisted unit of content, either uploaded or produced by a
// workflow node
type Artifact struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"userId" db:"user_id"`
	Type      ArtifactType           `json:"type" db:"type"`
	Format    string                 `json:"format" db:"format"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"` // JSONB
	SourceURL *string                `json:"sourceUrl,omitempty" db:"source_url"`
	CreatedAt time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time              `json:"updatedAt" db:"updated_at"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}
