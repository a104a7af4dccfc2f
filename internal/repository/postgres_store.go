package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ai-workflow-hub/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is a PostgreSQL implementation of Repository.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore. The store takes ownership of
// the pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// ids are UUID columns; anything else cannot match a row
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}

// GetUserByEmail retrieves a user by email address.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, "SELECT id, email, role, created_at FROM users WHERE email = $1", email).
		Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser saves a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.CreatedAt = now()
	_, err := s.db.Exec(ctx, "INSERT INTO users (id, email, role, created_at) VALUES ($1, $2, $3, $4)",
		user.ID, user.Email, user.Role, user.CreatedAt)
	return err
}

const workflowColumns = "id, user_id, name, description, nodes, edges, status, created_at, updated_at"

// CreateWorkflow saves a new workflow.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}
	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}
	workflow.CreatedAt = now()
	workflow.UpdatedAt = workflow.CreatedAt

	nodes, edges, err := marshalGraph(workflow)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, "INSERT INTO workflows ("+workflowColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		workflow.ID, workflow.UserID, workflow.Name, workflow.Description, nodes, edges, workflow.Status,
		workflow.CreatedAt, workflow.UpdatedAt)
	return err
}

// GetWorkflow retrieves a workflow by its ID.
func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanWorkflow(s.db.QueryRow(ctx, "SELECT "+workflowColumns+" FROM workflows WHERE id = $1", id))
}

// ListWorkflows returns the workflows owned by userID.
func (s *PostgresStore) ListWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error) {
	if !validID(userID) {
		return []*models.Workflow{}, nil
	}
	rows, err := s.db.Query(ctx, "SELECT "+workflowColumns+" FROM workflows WHERE user_id = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := []*models.Workflow{}
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, workflow)
	}
	return workflows, rows.Err()
}

// UpdateWorkflow updates name, description, graph and status of a workflow.
func (s *PostgresStore) UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if !validID(workflow.ID) {
		return ErrNotFound
	}
	nodes, edges, err := marshalGraph(workflow)
	if err != nil {
		return err
	}
	workflow.UpdatedAt = now()
	tag, err := s.db.Exec(ctx, "UPDATE workflows SET name = $1, description = $2, nodes = $3, edges = $4, status = $5, updated_at = $6 WHERE id = $7",
		workflow.Name, workflow.Description, nodes, edges, workflow.Status, workflow.UpdatedAt, workflow.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorkflow deletes a workflow and, by cascade, its executions.
func (s *PostgresStore) DeleteWorkflow(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalGraph(workflow *models.Workflow) ([]byte, []byte, error) {
	if workflow.Nodes == nil {
		workflow.Nodes = []models.Node{}
	}
	if workflow.Edges == nil {
		workflow.Edges = []models.Edge{}
	}
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal nodes: %w", err)
	}
	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal edges: %w", err)
	}
	return nodes, edges, nil
}

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var workflow models.Workflow
	var nodes, edges []byte
	err := row.Scan(&workflow.ID, &workflow.UserID, &workflow.Name, &workflow.Description, &nodes, &edges,
		&workflow.Status, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(nodes, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes of workflow %s: %w", workflow.ID, err)
	}
	if err := json.Unmarshal(edges, &workflow.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode edges of workflow %s: %w", workflow.ID, err)
	}
	return &workflow, nil
}

const capabilityColumns = "id, name, description, category, operation_type, input_formats, output_formats, parameters, is_active, created_at, updated_at"

// CreateCapability saves a new capability.
func (s *PostgresStore) CreateCapability(ctx context.Context, capability *models.Capability) error {
	if capability.ID == "" {
		capability.ID = uuid.New().String()
	}
	capability.CreatedAt = now()
	capability.UpdatedAt = capability.CreatedAt

	inputs, err := json.Marshal(nonNil(capability.InputFormats))
	if err != nil {
		return err
	}
	outputs, err := json.Marshal(nonNil(capability.OutputFormats))
	if err != nil {
		return err
	}
	params, err := marshalMap(capability.Parameters)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, "INSERT INTO capabilities ("+capabilityColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		capability.ID, capability.Name, capability.Description, capability.Category, capability.OperationType,
		inputs, outputs, params, capability.IsActive, capability.CreatedAt, capability.UpdatedAt)
	return err
}

// GetCapability retrieves a capability by its ID.
func (s *PostgresStore) GetCapability(ctx context.Context, id string) (*models.Capability, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanCapability(s.db.QueryRow(ctx, "SELECT "+capabilityColumns+" FROM capabilities WHERE id = $1", id))
}

// ListCapabilities returns every capability ordered by name.
func (s *PostgresStore) ListCapabilities(ctx context.Context) ([]*models.Capability, error) {
	rows, err := s.db.Query(ctx, "SELECT "+capabilityColumns+" FROM capabilities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	capabilities := []*models.Capability{}
	for rows.Next() {
		capability, err := scanCapability(rows)
		if err != nil {
			return nil, err
		}
		capabilities = append(capabilities, capability)
	}
	return capabilities, rows.Err()
}

func scanCapability(row pgx.Row) (*models.Capability, error) {
	var capability models.Capability
	var inputs, outputs, params []byte
	err := row.Scan(&capability.ID, &capability.Name, &capability.Description, &capability.Category,
		&capability.OperationType, &inputs, &outputs, &params, &capability.IsActive,
		&capability.CreatedAt, &capability.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(inputs, &capability.InputFormats); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(outputs, &capability.OutputFormats); err != nil {
		return nil, err
	}
	if capability.Parameters, err = unmarshalMap(params); err != nil {
		return nil, err
	}
	return &capability, nil
}

const artifactColumns = "id, user_id, type, format, content, metadata, source_url, created_at, updated_at"

// CreateArtifact saves a new artifact.
func (s *PostgresStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	artifact.CreatedAt = now()
	artifact.UpdatedAt = artifact.CreatedAt

	metadata, err := marshalMap(artifact.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, "INSERT INTO artifacts ("+artifactColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		artifact.ID, artifact.UserID, artifact.Type, artifact.Format, artifact.Content, metadata,
		artifact.SourceURL, artifact.CreatedAt, artifact.UpdatedAt)
	return err
}

// GetArtifact retrieves an artifact by its ID.
func (s *PostgresStore) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanArtifact(s.db.QueryRow(ctx, "SELECT "+artifactColumns+" FROM artifacts WHERE id = $1", id))
}

// ListArtifacts returns the artifacts owned by userID, newest first.
func (s *PostgresStore) ListArtifacts(ctx context.Context, userID string) ([]*models.Artifact, error) {
	if !validID(userID) {
		return []*models.Artifact{}, nil
	}
	rows, err := s.db.Query(ctx, "SELECT "+artifactColumns+" FROM artifacts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artifacts := []*models.Artifact{}
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// DeleteArtifact deletes an artifact.
func (s *PostgresStore) DeleteArtifact(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, "DELETE FROM artifacts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanArtifact(row pgx.Row) (*models.Artifact, error) {
	var artifact models.Artifact
	var metadata []byte
	err := row.Scan(&artifact.ID, &artifact.UserID, &artifact.Type, &artifact.Format, &artifact.Content,
		&metadata, &artifact.SourceURL, &artifact.CreatedAt, &artifact.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if artifact.Metadata, err = unmarshalMap(metadata); err != nil {
		return nil, err
	}
	return &artifact, nil
}

const executionColumns = "id, workflow_id, status, logs, started_at, completed_at"

// CreateExecution saves a new execution record.
func (s *PostgresStore) CreateExecution(ctx context.Context, execution *models.Execution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	if execution.Status == "" {
		execution.Status = models.ExecutionStatusRunning
	}
	if execution.Logs == nil {
		execution.Logs = []models.LogEntry{}
	}
	execution.StartedAt = now()

	logs, err := json.Marshal(execution.Logs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, "INSERT INTO workflow_executions ("+executionColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		execution.ID, execution.WorkflowID, execution.Status, logs, execution.StartedAt, execution.CompletedAt)
	return err
}

// GetExecution retrieves an execution record by its ID.
func (s *PostgresStore) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanExecution(s.db.QueryRow(ctx, "SELECT "+executionColumns+" FROM workflow_executions WHERE id = $1", id))
}

// ListExecutions returns the executions of a workflow, newest first.
func (s *PostgresStore) ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	if !validID(workflowID) {
		return []*models.Execution{}, nil
	}
	rows, err := s.db.Query(ctx, "SELECT "+executionColumns+" FROM workflow_executions WHERE workflow_id = $1 ORDER BY started_at DESC", workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := []*models.Execution{}
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, execution)
	}
	return executions, rows.Err()
}

// UpdateExecutionLogs replaces the log array of an execution.
func (s *PostgresStore) UpdateExecutionLogs(ctx context.Context, id string, logs []models.LogEntry) error {
	if logs == nil {
		logs = []models.LogEntry{}
	}
	payload, err := json.Marshal(logs)
	if err != nil {
		return err
	}
	return s.updateExecution(ctx, id, "UPDATE workflow_executions SET logs = $1 WHERE id = $2", payload)
}

// FinishExecution sets the terminal status and completion time.
func (s *PostgresStore) FinishExecution(ctx context.Context, id string, status models.ExecutionStatus, completedAt time.Time) error {
	return s.updateExecution(ctx, id, "UPDATE workflow_executions SET status = $1, completed_at = $2 WHERE id = $3", status, completedAt.UTC())
}

// updateExecution runs sql with args followed by id as the last parameter.
func (s *PostgresStore) updateExecution(ctx context.Context, id, sql string, args ...any) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, sql, append(args, id)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountExecutions counts executions currently in status.
func (s *PostgresStore) CountExecutions(ctx context.Context, status models.ExecutionStatus) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT count(*) FROM workflow_executions WHERE status = $1", status).Scan(&n)
	return n, err
}

func scanExecution(row pgx.Row) (*models.Execution, error) {
	var execution models.Execution
	var logs []byte
	err := row.Scan(&execution.ID, &execution.WorkflowID, &execution.Status, &logs, &execution.StartedAt, &execution.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(logs, &execution.Logs); err != nil {
		return nil, fmt.Errorf("failed to decode logs of execution %s: %w", execution.ID, err)
	}
	return &execution, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nil maps are stored as SQL NULL
func marshalMap(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMap(b []byte) (map[string]interface{}, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
