package driven

import (
	"context"
	"fmt"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
)

// TokenSource defines the driven port for bearer token acquisition.
// Implementations cache the credential for its lifetime and only hit the
// identity endpoint when the cache is empty, expired, or invalidated.
type TokenSource interface {
	// Token returns a currently valid bearer token, refreshing it from the
	// identity endpoint if needed. Failures are *AuthError.
	Token(ctx context.Context) (model.AccessToken, error)

	// Invalidate discards the cached credential if it still matches token.
	// Called when the model endpoint rejects the token with a 401.
	Invalidate(token string)
}

// AuthError indicates that acquiring a credential from the identity endpoint
// failed. The wrapped cause never contains the API key.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credential acquisition failed: %v", e.Cause)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}
