package driven

import (
	"context"
	"fmt"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
)

// ModelClient defines the driven port for the hosted text-generation service.
type ModelClient interface {
	// Generate sends a prompt to the model endpoint and returns the generated
	// answer. Failures are *AuthError (token acquisition) or *UpstreamError
	// (model call rejected, timed out, or returned an unparseable body).
	Generate(ctx context.Context, prompt string) (*model.Generation, error)

	// ListAgents returns the agents registered in the platform project.
	ListAgents(ctx context.Context) ([]model.Agent, error)
}

// UpstreamError indicates that the model platform rejected a call or returned
// a body the client could not interpret. StatusCode is zero for transport
// failures (timeout, connection reset) that never produced a response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("model platform unreachable: %s", e.Body)
	}
	return fmt.Sprintf("model platform returned %d: %s", e.StatusCode, e.Body)
}
