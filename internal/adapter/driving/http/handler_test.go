package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/Blue-Waters-bots/blue-waters-backend/internal/adapter/driving/http"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/application"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockSourceStore struct {
	sources []model.WaterSource
	source  *model.WaterSource
	err     error
	getErr  error
}

func (m *mockSourceStore) ListAll(_ context.Context) ([]model.WaterSource, error) {
	return m.sources, m.err
}

func (m *mockSourceStore) GetByID(_ context.Context, _ string) (*model.WaterSource, error) {
	return m.source, m.getErr
}

type mockPredictionStore struct {
	pred *model.QualityPrediction
	err  error
}

func (m *mockPredictionStore) GetBySource(_ context.Context, _ string) (*model.QualityPrediction, error) {
	return m.pred, m.err
}

type mockHistoryStore struct {
	series []model.HistoricalSeries
	filter model.HistoryFilter
	err    error
}

func (m *mockHistoryStore) ListSeries(_ context.Context, filter model.HistoryFilter) ([]model.HistoricalSeries, error) {
	m.filter = filter
	return m.series, m.err
}

type mockAlertStore struct {
	alerts []model.Alert
	err    error
}

func (m *mockAlertStore) ListAll(_ context.Context) ([]model.Alert, error) {
	return m.alerts, m.err
}

type mockModelClient struct {
	gen     *model.Generation
	genErr  error
	agents  []model.Agent
	calls   int
	prompts []string
}

func (m *mockModelClient) Generate(_ context.Context, prompt string) (*model.Generation, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.gen, m.genErr
}

func (m *mockModelClient) ListAgents(_ context.Context) ([]model.Agent, error) {
	return m.agents, m.genErr
}

// --- Test fixture ---

type fixture struct {
	sources     *mockSourceStore
	predictions *mockPredictionStore
	history     *mockHistoryStore
	alerts      *mockAlertStore
	modelClient *mockModelClient
	server      http.Handler
}

func newFixture(exposeRaw bool) *fixture {
	f := &fixture{
		sources:     &mockSourceStore{},
		predictions: &mockPredictionStore{},
		history:     &mockHistoryStore{},
		alerts:      &mockAlertStore{},
		modelClient: &mockModelClient{},
	}

	logger := slog.New(slog.DiscardHandler)
	h := httphandler.NewHandler(
		f.sources,
		f.predictions,
		f.history,
		f.alerts,
		application.NewAdvisoryService(f.modelClient),
		f.modelClient,
		exposeRaw,
		logger,
	)
	f.server = httphandler.NewServeMux(h, []string{"http://localhost:8080"}, logger)

	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, body
}

// --- Data routes ---

func TestListWaterSources(t *testing.T) {
	f := newFixture(false)
	f.sources.sources = []model.WaterSource{
		{ID: "ws-001", Name: "Lake Meridian Reservoir", Location: "Kent, WA", Type: "reservoir"},
	}

	resp, body := f.get(t, "/water-sources")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []httphandler.WaterSourceResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ws-001", got[0].ID)
	assert.NotNil(t, got[0].Metrics, "metrics must encode as [] rather than null")
}

func TestListWaterSources_StoreError(t *testing.T) {
	f := newFixture(false)
	f.sources.err = errors.New("disk gone")

	resp, _ := f.get(t, "/water-sources")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetWaterSource_NotFound(t *testing.T) {
	f := newFixture(false)
	f.sources.getErr = driven.ErrSourceNotFound

	resp, body := f.get(t, "/water-source/ws-999")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "water source not found", got["error"])
}

func TestGetQualityPrediction(t *testing.T) {
	f := newFixture(false)
	f.predictions.pred = &model.QualityPrediction{
		SourceID:         "ws-002",
		Score:            54,
		Status:           model.PredictionStatusPoor,
		Description:      "Nitrate exceeds the limit.",
		ImprovementSteps: []string{"Deploy ion-exchange treatment"},
	}

	resp, body := f.get(t, "/quality-predictions/ws-002")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httphandler.PredictionResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 54, got.Score)
	assert.Equal(t, "poor", got.Status)
}

func TestGetQualityPrediction_NotFound(t *testing.T) {
	f := newFixture(false)
	f.predictions.err = driven.ErrPredictionNotFound

	resp, _ := f.get(t, "/quality-predictions/ws-999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListHistoricalData_PassesFilters(t *testing.T) {
	f := newFixture(false)

	resp, _ := f.get(t, "/historical-data?source_id=ws-002&metric_id=nitrate")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, model.HistoryFilter{SourceID: "ws-002", MetricID: "nitrate"}, f.history.filter)
}

func TestListAlerts(t *testing.T) {
	f := newFixture(false)
	f.alerts.alerts = []model.Alert{
		{ID: "al-001", SourceID: "ws-002", Severity: model.AlertSeverityCritical, Message: "Nitrate exceeded", CreatedAt: time.Now()},
	}

	resp, body := f.get(t, "/alerts")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []httphandler.AlertResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "critical", got[0].Severity)
}

func TestListAgents(t *testing.T) {
	f := newFixture(false)
	f.modelClient.agents = []model.Agent{{ID: "agent-1", Name: "quality-watch"}}

	resp, body := f.get(t, "/agents")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []httphandler.AgentResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "quality-watch", got[0].Name)
}

// --- Advisory routes ---

func TestAdvisory_Success(t *testing.T) {
	f := newFixture(false)
	f.modelClient.gen = &model.Generation{
		Answer: "Arsenic above 10 ppb increases long-term health risk.",
		Raw:    json.RawMessage(`{"choices":[{"message":{"content":"Arsenic above 10 ppb increases long-term health risk."}}]}`),
	}

	resp, body := f.get(t, "/water-quality-agent?query=What+is+the+risk+of+high+arsenic+levels%3F")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httphandler.AdvisoryResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Arsenic above 10 ppb increases long-term health risk.", got.Answer)
	assert.Nil(t, got.Raw, "raw payload must stay hidden unless configured")
}

func TestAdvisory_ExposeRawIncludesUpstreamPayload(t *testing.T) {
	f := newFixture(true)
	f.modelClient.gen = &model.Generation{
		Answer: "ok",
		Raw:    json.RawMessage(`{"choices":[]}`),
	}

	resp, body := f.get(t, "/health-risk-agent?query=anything")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httphandler.AdvisoryResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.JSONEq(t, `{"choices":[]}`, string(got.Raw))
}

func TestAdvisory_MissingQueryIs400WithoutUpstreamCall(t *testing.T) {
	f := newFixture(false)

	for _, path := range []string{
		"/water-quality-agent",
		"/water-quality-agent?query=",
		"/health-risk-agent?query=%20%20",
	} {
		resp, _ := f.get(t, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	assert.Zero(t, f.modelClient.calls, "blank queries must trigger no model call")
}

func TestAdvisory_RoutesUseDistinctRoles(t *testing.T) {
	f := newFixture(false)
	f.modelClient.gen = &model.Generation{Answer: "ok"}

	_, _ = f.get(t, "/water-quality-agent?query=same+question")
	_, _ = f.get(t, "/health-risk-agent?query=same+question")

	require.Len(t, f.modelClient.prompts, 2)
	assert.NotEqual(t, f.modelClient.prompts[0], f.modelClient.prompts[1])
}

func TestAdvisory_AuthErrorIs502(t *testing.T) {
	f := newFixture(false)
	f.modelClient.genErr = &driven.AuthError{Cause: errors.New("identity outage")}

	resp, body := f.get(t, "/water-quality-agent?query=q")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "upstream authentication failed", got["error"])
}

func TestAdvisory_UpstreamErrorIs502WithDetail(t *testing.T) {
	f := newFixture(false)
	f.modelClient.genErr = &driven.UpstreamError{StatusCode: 503, Body: "model overloaded"}

	resp, body := f.get(t, "/health-risk-agent?query=q")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got["detail"], "503")
	assert.Contains(t, got["detail"], "model overloaded")
}

func TestAdvisory_HTMLFormatRendersMarkdown(t *testing.T) {
	f := newFixture(false)
	f.modelClient.gen = &model.Generation{Answer: "**bold** advice"}

	resp, body := f.get(t, "/water-quality-agent?query=q&format=html")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httphandler.AdvisoryResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got.Answer, "<strong>bold</strong>")
}

// --- Middleware ---

func TestCORS_AllowedOrigin(t *testing.T) {
	f := newFixture(false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	f := newFixture(false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	f := newFixture(false)

	resp, body := f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httphandler.HealthResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ok", got.Status)
}
