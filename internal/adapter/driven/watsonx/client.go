package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ModelClient = (*Client)(nil)

// chatAPIVersion is the watsonx ML API version pinned by this client.
const chatAPIVersion = "2024-10-08"

// Client implements the driven.ModelClient port against the watsonx platform.
// Text generation goes through the /ml/v1/text/chat endpoint; agent listing
// goes through the platform GET API behind an ETag-aware memory cache
// transport, so repeated listings are served conditionally.
type Client struct {
	httpClient *http.Client
	tokens     driven.TokenSource
	baseURL    string
	projectID  string
	modelID    string
	logger     *slog.Logger
}

// NewClient creates a Client. tokens supplies bearer credentials; timeout
// bounds each model call.
func NewClient(tokens driven.TokenSource, baseURL, projectID, modelID string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: httpcache.NewMemoryCacheTransport(),
		},
		tokens:    tokens,
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		modelID:   modelID,
		logger:    logger,
	}
}

// chatRequest is the wire body for the chat endpoint.
type chatRequest struct {
	ModelID   string        `json:"model_id"`
	ProjectID string        `json:"project_id"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat endpoint body the client reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a single user message and returns the first
// choice's content. A 401 invalidates the cached token and triggers exactly
// one retry with a fresh one; any other non-2xx fails without retry, since
// the model call is billed and not guaranteed idempotent.
func (c *Client) Generate(ctx context.Context, prompt string) (*model.Generation, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.postChat(ctx, cred.Token, prompt)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.tokens.Invalidate(cred.Token)
		c.logger.Warn("model endpoint rejected token, re-authenticating once")

		cred, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		status, body, err = c.postChat(ctx, cred.Token, prompt)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, &driven.UpstreamError{StatusCode: status, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &driven.UpstreamError{StatusCode: status, Body: fmt.Sprintf("unparseable chat response: %v", err)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &driven.UpstreamError{StatusCode: status, Body: "chat response contained no generated message"}
	}

	return &model.Generation{
		Answer: parsed.Choices[0].Message.Content,
		Raw:    json.RawMessage(body),
	}, nil
}

// postChat performs one chat call and returns the raw status and body.
// Transport-level failures (timeouts included) surface as *UpstreamError.
func (c *Client) postChat(ctx context.Context, token, prompt string) (int, []byte, error) {
	payload, err := json.Marshal(chatRequest{
		ModelID:   c.modelID,
		ProjectID: c.projectID,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return 0, nil, fmt.Errorf("encode chat request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ml/v1/text/chat?version=%s", c.baseURL, chatAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("model endpoint unreachable", "endpoint", endpoint, "elapsed", time.Since(start), "error", err)
		return 0, nil, &driven.UpstreamError{Body: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, &driven.UpstreamError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("read chat response: %v", err)}
	}

	c.logger.Info("model call completed", "status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))
	return resp.StatusCode, body, nil
}

// agentsResponse is the subset of the platform agents listing the client reads.
type agentsResponse struct {
	Resources []struct {
		Metadata struct {
			GUID string `json:"guid"`
		} `json:"metadata"`
		Entity struct {
			Name string `json:"name"`
		} `json:"entity"`
	} `json:"resources"`
}

// ListAgents returns the agents registered in the configured project.
func (c *Client) ListAgents(ctx context.Context) ([]model.Agent, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/agents?project_id=%s", c.baseURL, url.QueryEscape(c.projectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build agents request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &driven.UpstreamError{Body: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &driven.UpstreamError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("read agents response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &driven.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed agentsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &driven.UpstreamError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("unparseable agents response: %v", err)}
	}

	agents := make([]model.Agent, 0, len(parsed.Resources))
	for _, r := range parsed.Resources {
		agents = append(agents, model.Agent{ID: r.Metadata.GUID, Name: r.Entity.Name})
	}

	return agents, nil
}
