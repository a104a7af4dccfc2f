package workflow

import (
	"errors"
	"fmt"

	"ai-workflow-hub/backend/internal/capability"
)

var (
	ErrWorkflowNotFound   = errors.New("workflow not found")
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrRemoteCapability   = capability.ErrRemote
	ErrPersistence        = errors.New("persistence error")
)

// RunError is a run failure of a given Kind. It matches both Kind and the
// underlying cause with errors.Is.
type RunError struct {
	Kind error
	Op   string
	Err  error
}

func (e *RunError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RunError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(kind error, id string) error {
	return &RunError{Kind: kind, Op: id}
}

func persistence(op string, err error) error {
	return &RunError{Kind: ErrPersistence, Op: op, Err: err}
}
