// Package application contains the use-case services that sit between the
// HTTP driving adapter and the driven ports.
package application

import (
	"context"
	"errors"
	"strings"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// ErrEmptyQuery is returned when an advisory query is empty after trimming.
// The HTTP adapter maps it to a 400 response.
var ErrEmptyQuery = errors.New("query must not be empty")

// AdvisoryService turns a user query plus an advisory role into a model
// prompt and forwards it to the model client. Both public advisory routes
// funnel through Ask; the role is the only difference between them.
type AdvisoryService struct {
	model driven.ModelClient
}

// NewAdvisoryService creates an AdvisoryService backed by the given model client.
func NewAdvisoryService(model driven.ModelClient) *AdvisoryService {
	return &AdvisoryService{model: model}
}

// Ask validates the query, builds the role-specific prompt, and requests a
// generation. Returns ErrEmptyQuery before any outbound call when the query
// is blank; otherwise propagates the model client's error unchanged.
func (s *AdvisoryService) Ask(ctx context.Context, role model.AdvisoryRole, query string) (*model.Generation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	return s.model.Generate(ctx, BuildPrompt(role, query))
}

// BuildPrompt concatenates the role preamble and the query. The policy is
// fixed (preamble, blank line, query) so prompts stay deterministic.
func BuildPrompt(role model.AdvisoryRole, query string) string {
	return role.Preamble() + "\n\n" + query
}
