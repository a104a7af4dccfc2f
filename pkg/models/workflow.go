package models

import (
	"time"
)

// WorkflowStatus is the lifecycle state of a workflow definition
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// Workflow is a user-composed graph of AI operation nodes.
type Workflow struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Nodes       []Node         `json:"nodes"` // JSONB
	Edges       []Edge         `json:"edges"` // JSONB
	Status      WorkflowStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Position is the editor canvas location of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a graph vertex, optionally bound to a capability and/or a seed
// artifact. The shape follows the graphical editor's node format.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type,omitempty"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData carries the engine-relevant part of a node.
type NodeData struct {
	Label        string                 `json:"label"`
	CapabilityID string                 `json:"capabilityId,omitempty"`
	ArtifactID   string                 `json:"artifactId,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
}

// Edge is a directed data-flow link from Source's output to Target's input.
// Source and Target are not guaranteed to reference existing nodes.
type Edge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// ExecutionStatus is the state of a single workflow run
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution is the persisted record of one workflow run.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflowId"`
	Status      ExecutionStatus `json:"status"`
	Logs        []LogEntry      `json:"logs"` // JSONB
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// LogStatus is the lifecycle event recorded by a LogEntry
type LogStatus string

const (
	LogStatusStarted   LogStatus = "started"
	LogStatusCompleted LogStatus = "completed"
	LogStatusFailed    LogStatus = "failed"
)

// RunLogNodeID is the node id used for run-level log entries.
const RunLogNodeID = "workflow"

// LogEntry is one timestamped node-level or run-level event of a run.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	NodeID    string                 `json:"nodeId"`
	Status    LogStatus              `json:"status"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
