package workflow

import (
	"time"

	"ai-workflow-hub/backend/pkg/models"
)

// Logger is the operational logger used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExecutionLog is the append-only event record of one run. Timestamps never
// decrease in append order, even if the wall clock steps back.
type ExecutionLog struct {
	executionID string
	entries     []models.LogEntry
	logger      Logger
	now         func() time.Time
}

// NewExecutionLog creates an empty log for executionID. Every appended entry
// is mirrored to logger at debug level.
func NewExecutionLog(executionID string, logger Logger) *ExecutionLog {
	return &ExecutionLog{
		executionID: executionID,
		entries:     []models.LogEntry{},
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Append records an event and returns the stored entry.
func (l *ExecutionLog) Append(nodeID string, status models.LogStatus, message string, data map[string]interface{}) models.LogEntry {
	ts := l.now()
	if n := len(l.entries); n > 0 && ts.Before(l.entries[n-1].Timestamp) {
		ts = l.entries[n-1].Timestamp
	}
	entry := models.LogEntry{
		Timestamp: ts,
		NodeID:    nodeID,
		Status:    status,
		Message:   message,
		Data:      data,
	}
	l.entries = append(l.entries, entry)

	l.logger.Debug(message, "execution_id", l.executionID, "node_id", nodeID, "status", status)
	return entry
}

// Entries returns a copy of the entries in append order.
func (l *ExecutionLog) Entries() []models.LogEntry {
	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ExecutionLog) Len() int {
	return len(l.entries)
}
