package capability

import (
	"context"
	"fmt"
)

// EchoTransport answers every request locally by echoing the last user
// message. It backs the "echo" provider for offline development.
type EchoTransport struct{}

// Complete implements Transport.
func (EchoTransport) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			last = m.Content
		}
	}
	return fmt.Sprintf("[%s] %s", req.Model, last), nil
}
