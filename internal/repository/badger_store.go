package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"ai-workflow-hub/backend/pkg/models"
)

const (
	prefixUser        = "users/"
	prefixUserByEmail = "users_by_email/"
	prefixWorkflow    = "workflows/"
	prefixCapability  = "capabilities/"
	prefixArtifact    = "artifacts/"
	prefixExecution   = "executions/"
)

// BadgerStore is an embedded Repository for single-node deployments and
// tests. Values are JSON documents keyed by "<collection>/<id>".
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a store at path. An empty path opens an
// in-memory store.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Ping reports whether the store is open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), b)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *BadgerStore) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, v)
	})
}

// scan decodes every value under prefix and keeps those accepted by keep.
func scan[T any](db *badger.DB, prefix string, keep func(*T) bool) ([]*T, error) {
	out := []*T{}
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			v := new(T)
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, v)
			}); err != nil {
				return err
			}
			if keep == nil || keep(v) {
				out = append(out, v)
			}
		}
		return nil
	})
	return out, err
}

// GetUserByEmail retrieves a user by email address.
func (s *BadgerStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var id string
		if err := getJSON(txn, prefixUserByEmail+email, &id); err != nil {
			return err
		}
		return getJSON(txn, prefixUser+id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser saves a new user. Emails are unique.
func (s *BadgerStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.CreatedAt = now()
	return s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, prefixUserByEmail+user.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
		if err := setJSON(txn, prefixUserByEmail+user.Email, user.ID); err != nil {
			return err
		}
		return setJSON(txn, prefixUser+user.ID, user)
	})
}

// CreateWorkflow saves a new workflow.
func (s *BadgerStore) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}
	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}
	if workflow.Nodes == nil {
		workflow.Nodes = []models.Node{}
	}
	if workflow.Edges == nil {
		workflow.Edges = []models.Edge{}
	}
	workflow.CreatedAt = now()
	workflow.UpdatedAt = workflow.CreatedAt
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixWorkflow+workflow.ID, workflow)
	})
}

// GetWorkflow retrieves a workflow by its ID.
func (s *BadgerStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow
	if err := s.get(prefixWorkflow+id, &workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// ListWorkflows returns the workflows owned by userID, oldest first.
func (s *BadgerStore) ListWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error) {
	workflows, err := scan(s.db, prefixWorkflow, func(w *models.Workflow) bool { return w.UserID == userID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})
	return workflows, nil
}

// UpdateWorkflow updates name, description, graph and status of a workflow.
// Owner and creation time are kept from the stored record.
func (s *BadgerStore) UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var stored models.Workflow
		if err := getJSON(txn, prefixWorkflow+workflow.ID, &stored); err != nil {
			return err
		}
		workflow.UserID = stored.UserID
		workflow.CreatedAt = stored.CreatedAt
		workflow.UpdatedAt = now()
		return setJSON(txn, prefixWorkflow+workflow.ID, workflow)
	})
}

// DeleteWorkflow deletes a workflow together with its executions.
func (s *BadgerStore) DeleteWorkflow(ctx context.Context, id string) error {
	executions, err := s.ListExecutions(ctx, id)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, prefixWorkflow+id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		for _, execution := range executions {
			if err := txn.Delete([]byte(prefixExecution + execution.ID)); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(prefixWorkflow + id))
	})
}

// CreateCapability saves a new capability.
func (s *BadgerStore) CreateCapability(ctx context.Context, capability *models.Capability) error {
	if capability.ID == "" {
		capability.ID = uuid.New().String()
	}
	capability.CreatedAt = now()
	capability.UpdatedAt = capability.CreatedAt
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixCapability+capability.ID, capability)
	})
}

// GetCapability retrieves a capability by its ID.
func (s *BadgerStore) GetCapability(ctx context.Context, id string) (*models.Capability, error) {
	var capability models.Capability
	if err := s.get(prefixCapability+id, &capability); err != nil {
		return nil, err
	}
	return &capability, nil
}

// ListCapabilities returns every capability ordered by name.
func (s *BadgerStore) ListCapabilities(ctx context.Context) ([]*models.Capability, error) {
	capabilities, err := scan[models.Capability](s.db, prefixCapability, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(capabilities, func(i, j int) bool {
		return capabilities[i].Name < capabilities[j].Name
	})
	return capabilities, nil
}

// CreateArtifact saves a new artifact.
func (s *BadgerStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	artifact.CreatedAt = now()
	artifact.UpdatedAt = artifact.CreatedAt
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixArtifact+artifact.ID, artifact)
	})
}

// GetArtifact retrieves an artifact by its ID.
func (s *BadgerStore) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	var artifact models.Artifact
	if err := s.get(prefixArtifact+id, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// ListArtifacts returns the artifacts owned by userID, newest first.
func (s *BadgerStore) ListArtifacts(ctx context.Context, userID string) ([]*models.Artifact, error) {
	artifacts, err := scan(s.db, prefixArtifact, func(a *models.Artifact) bool { return a.UserID == userID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})
	return artifacts, nil
}

// DeleteArtifact deletes an artifact.
func (s *BadgerStore) DeleteArtifact(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, prefixArtifact+id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return txn.Delete([]byte(prefixArtifact + id))
	})
}

// CreateExecution saves a new execution record.
func (s *BadgerStore) CreateExecution(ctx context.Context, execution *models.Execution) error {
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
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixExecution+execution.ID, execution)
	})
}

// GetExecution retrieves an execution record by its ID.
func (s *BadgerStore) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var execution models.Execution
	if err := s.get(prefixExecution+id, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}

// ListExecutions returns the executions of a workflow, newest first.
func (s *BadgerStore) ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	executions, err := scan(s.db, prefixExecution, func(e *models.Execution) bool { return e.WorkflowID == workflowID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})
	return executions, nil
}

// UpdateExecutionLogs replaces the log array of an execution.
func (s *BadgerStore) UpdateExecutionLogs(ctx context.Context, id string, logs []models.LogEntry) error {
	return s.modifyExecution(id, func(execution *models.Execution) {
		execution.Logs = append([]models.LogEntry{}, logs...)
	})
}

// FinishExecution sets the terminal status and completion time.
func (s *BadgerStore) FinishExecution(ctx context.Context, id string, status models.ExecutionStatus, completedAt time.Time) error {
	return s.modifyExecution(id, func(execution *models.Execution) {
		t := completedAt.UTC()
		execution.Status = status
		execution.CompletedAt = &t
	})
}

// modifyExecution is a read-modify-write of one record inside a single
// transaction.
func (s *BadgerStore) modifyExecution(id string, modify func(*models.Execution)) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var execution models.Execution
		if err := getJSON(txn, prefixExecution+id, &execution); err != nil {
			return err
		}
		modify(&execution)
		return setJSON(txn, prefixExecution+id, &execution)
	})
}

// CountExecutions counts executions currently in status.
func (s *BadgerStore) CountExecutions(ctx context.Context, status models.ExecutionStatus) (int, error) {
	executions, err := scan(s.db, prefixExecution, func(e *models.Execution) bool { return e.Status == status })
	return len(executions), err
}
