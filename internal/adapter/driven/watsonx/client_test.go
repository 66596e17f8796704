package watsonx_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/adapter/driven/watsonx"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// fakeTokenSource hands out canned tokens and records invalidations.
type fakeTokenSource struct {
	tokens      []string
	next        int
	err         error
	invalidated []string
}

func (f *fakeTokenSource) Token(_ context.Context) (model.AccessToken, error) {
	if f.err != nil {
		return model.AccessToken{}, f.err
	}
	tok := f.tokens[f.next]
	if f.next < len(f.tokens)-1 {
		f.next++
	}
	return model.AccessToken{Token: tok, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeTokenSource) Invalidate(token string) {
	f.invalidated = append(f.invalidated, token)
}

func newTestClient(t *testing.T, tokens driven.TokenSource, handler http.Handler) *watsonx.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)
	return watsonx.NewClient(tokens, server.URL, "proj-1", "ibm/granite-13b-chat-v2", 30*time.Second, logger)
}

func TestGenerate_Success(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-1"}}

	var gotBody map[string]any
	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ml/v1/text/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Arsenic above 10 ppb increases long-term health risk."}}]}`))
	}))

	gen, err := client.Generate(context.Background(), "What is the risk of high arsenic levels?")
	require.NoError(t, err)

	assert.Equal(t, "Arsenic above 10 ppb increases long-term health risk.", gen.Answer)
	assert.NotEmpty(t, gen.Raw)

	assert.Equal(t, "ibm/granite-13b-chat-v2", gotBody["model_id"])
	assert.Equal(t, "proj-1", gotBody["project_id"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "What is the risk of high arsenic levels?", msg["content"])
}

func TestGenerate_401InvalidatesAndRetriesOnce(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-old", "tok-new"}}

	var calls int
	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") == "Bearer tok-old" {
			http.Error(w, "token expired", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"fresh answer"}}]}`))
	}))

	gen, err := client.Generate(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "fresh answer", gen.Answer)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"tok-old"}, tokens.invalidated)
}

func TestGenerate_Second401SurfacesWithoutThirdCall(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-1", "tok-2"}}

	var calls int
	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "still unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.Generate(context.Background(), "q")

	var upstreamErr *driven.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, 2, calls, "a second 401 must not trigger a third call")
}

func TestGenerate_Non2xxFailsWithoutRetry(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-1"}}

	var calls int
	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))

	_, err := client.Generate(context.Background(), "q")

	var upstreamErr *driven.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Body, "model overloaded")
	assert.Equal(t, 1, calls)
	assert.Empty(t, tokens.invalidated)
}

func TestGenerate_UnexpectedShapeFailsWithUpstreamError(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-1"}}

	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))

	_, err := client.Generate(context.Background(), "q")

	var upstreamErr *driven.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Contains(t, upstreamErr.Body, "no generated message")
}

func TestGenerate_AuthErrorPropagatesUnchanged(t *testing.T) {
	authErr := &driven.AuthError{Cause: errors.New("identity outage")}
	tokens := &fakeTokenSource{err: authErr}

	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("model endpoint must not be called when token acquisition fails")
	}))

	_, err := client.Generate(context.Background(), "q")
	require.ErrorIs(t, err, authErr)
}

func TestListAgents(t *testing.T) {
	tokens := &fakeTokenSource{tokens: []string{"tok-1"}}

	client := newTestClient(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/agents", r.URL.Path)
		assert.Equal(t, "proj-1", r.URL.Query().Get("project_id"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resources":[
			{"metadata":{"guid":"agent-1"},"entity":{"name":"quality-watch"}},
			{"metadata":{"guid":"agent-2"},"entity":{"name":"health-watch"}}
		]}`))
	}))

	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)

	require.Len(t, agents, 2)
	assert.Equal(t, model.Agent{ID: "agent-1", Name: "quality-watch"}, agents[0])
	assert.Equal(t, model.Agent{ID: "agent-2", Name: "health-watch"}, agents[1])
}
