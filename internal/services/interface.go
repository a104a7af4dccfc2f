package services

import "context"

// Runner executes one workflow run to a terminal state.
type Runner interface {
	Execute(ctx context.Context, workflowID, executionID, userID string) error
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
