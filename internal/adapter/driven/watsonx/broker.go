// Package watsonx implements the TokenSource and ModelClient ports against
// the IBM watsonx platform: IAM token acquisition and chat-style text
// generation.
package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*CredentialBroker)(nil)

const grantTypeAPIKey = "urn:ibm:params:oauth:grant-type:apikey"

// defaultSafetyMargin is subtracted from a token's reported expiry so a
// token handed out here cannot expire while the model call is in flight.
const defaultSafetyMargin = 60 * time.Second

// CredentialBroker exchanges a long-lived API key for short-lived IAM bearer
// tokens and caches the current one for its lifetime. The mutex is held
// across a refresh, so concurrent cache misses collapse into a single
// outbound call and readers never observe a half-written credential.
type CredentialBroker struct {
	mu     sync.Mutex
	cached model.AccessToken

	httpClient *http.Client
	tokenURL   string
	apiKey     string
	margin     time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// NewCredentialBroker creates a broker against the given IAM token endpoint.
// timeout bounds each identity call.
func NewCredentialBroker(tokenURL, apiKey string, timeout time.Duration, logger *slog.Logger) *CredentialBroker {
	return &CredentialBroker{
		httpClient: &http.Client{Timeout: timeout},
		tokenURL:   tokenURL,
		apiKey:     apiKey,
		margin:     defaultSafetyMargin,
		logger:     logger,
		now:        time.Now,
	}
}

// Token returns the cached credential when it is still comfortably inside its
// lifetime, otherwise refreshes it from the identity endpoint. The common
// path is the cache hit and issues no network call.
func (b *CredentialBroker) Token(ctx context.Context) (model.AccessToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cached.Valid(b.now(), b.margin) {
		return b.cached, nil
	}

	cred, err := b.refresh(ctx)
	if err != nil {
		return model.AccessToken{}, &driven.AuthError{Cause: err}
	}

	b.cached = cred
	return cred, nil
}

// Invalidate discards the cached credential if it still matches token. A
// stale 401 from an already-replaced token never discards the newer one.
func (b *CredentialBroker) Invalidate(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cached.Token == token {
		b.cached = model.AccessToken{}
	}
}

// iamTokenResponse is the subset of the IAM token grant body the broker needs.
type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh performs the form-encoded API key grant. Callers hold the mutex.
func (b *CredentialBroker) refresh(ctx context.Context) (model.AccessToken, error) {
	form := url.Values{
		"grant_type": {grantTypeAPIKey},
		"apikey":     {b.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := b.now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.Error("identity endpoint unreachable", "url", b.tokenURL, "elapsed", time.Since(start), "error", err)
		return model.AccessToken{}, fmt.Errorf("identity endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.logger.Error("identity endpoint rejected grant", "url", b.tokenURL, "status", resp.StatusCode, "elapsed", time.Since(start))
		return model.AccessToken{}, fmt.Errorf("identity endpoint returned %d", resp.StatusCode)
	}

	var grant iamTokenResponse
	if err := json.Unmarshal(body, &grant); err != nil {
		return model.AccessToken{}, fmt.Errorf("decode token response: %w", err)
	}
	if grant.AccessToken == "" || grant.ExpiresIn <= 0 {
		return model.AccessToken{}, fmt.Errorf("token response missing access_token or expires_in")
	}

	cred := model.AccessToken{
		Token:     grant.AccessToken,
		ExpiresAt: b.now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}

	b.logger.Info("bearer token refreshed", "expires_at", cred.ExpiresAt, "elapsed", time.Since(start))
	return cred, nil
}
