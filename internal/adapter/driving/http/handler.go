// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/application"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Handler maps the HTTP surface onto the application and port layers.
type Handler struct {
	sources     driven.SourceStore
	predictions driven.PredictionStore
	history     driven.HistoryStore
	alerts      driven.AlertStore
	advisory    *application.AdvisoryService
	agents      driven.ModelClient
	exposeRaw   bool
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. exposeRaw
// controls whether advisory responses include the raw upstream payload.
func NewHandler(
	sources driven.SourceStore,
	predictions driven.PredictionStore,
	history driven.HistoryStore,
	alerts driven.AlertStore,
	advisory *application.AdvisoryService,
	agents driven.ModelClient,
	exposeRaw bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sources:     sources,
		predictions: predictions,
		history:     history,
		alerts:      alerts,
		advisory:    advisory,
		agents:      agents,
		exposeRaw:   exposeRaw,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CORS, logging, and recovery middleware.
func NewServeMux(h *Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /water-sources", h.ListWaterSources)
	mux.HandleFunc("GET /water-source/{source_id}", h.GetWaterSource)
	mux.HandleFunc("GET /quality-predictions/{source_id}", h.GetQualityPrediction)
	mux.HandleFunc("GET /historical-data", h.ListHistoricalData)
	mux.HandleFunc("GET /alerts", h.ListAlerts)
	mux.HandleFunc("GET /agents", h.ListAgents)
	mux.HandleFunc("GET /water-quality-agent", h.advisoryHandler(model.RoleWaterQuality))
	mux.HandleFunc("GET /health-risk-agent", h.advisoryHandler(model.RoleHealthRisk))
	mux.HandleFunc("GET /health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = corsMiddleware(allowedOrigins, wrapped)

	return wrapped
}

// ListWaterSources returns all monitored water sources.
func (h *Handler) ListWaterSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list water sources", "error", err)
		writeError(w, http.StatusBadGateway, "data store error", "")
		return
	}

	resp := make([]WaterSourceResponse, 0, len(sources))
	for _, s := range sources {
		resp = append(resp, toWaterSourceResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetWaterSource returns a single water source by id.
func (h *Handler) GetWaterSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("source_id")

	source, err := h.sources.GetByID(r.Context(), sourceID)
	if errors.Is(err, driven.ErrSourceNotFound) {
		writeError(w, http.StatusNotFound, "water source not found", "")
		return
	}
	if err != nil {
		h.logger.Error("failed to get water source", "source_id", sourceID, "error", err)
		writeError(w, http.StatusBadGateway, "data store error", "")
		return
	}

	writeJSON(w, http.StatusOK, toWaterSourceResponse(*source))
}

// GetQualityPrediction returns the quality prediction for a source.
func (h *Handler) GetQualityPrediction(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("source_id")

	pred, err := h.predictions.GetBySource(r.Context(), sourceID)
	if errors.Is(err, driven.ErrPredictionNotFound) {
		writeError(w, http.StatusNotFound, "prediction not found", "")
		return
	}
	if err != nil {
		h.logger.Error("failed to get prediction", "source_id", sourceID, "error", err)
		writeError(w, http.StatusBadGateway, "data store error", "")
		return
	}

	writeJSON(w, http.StatusOK, toPredictionResponse(*pred))
}

// ListHistoricalData returns historical reading series, optionally filtered
// by source_id and metric_id query parameters.
func (h *Handler) ListHistoricalData(w http.ResponseWriter, r *http.Request) {
	filter := model.HistoryFilter{
		SourceID: r.URL.Query().Get("source_id"),
		MetricID: r.URL.Query().Get("metric_id"),
	}

	series, err := h.history.ListSeries(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list historical data", "error", err)
		writeError(w, http.StatusBadGateway, "data store error", "")
		return
	}

	resp := make([]HistoricalSeriesResponse, 0, len(series))
	for _, s := range series {
		resp = append(resp, toHistoricalSeriesResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListAlerts returns all alerts, newest first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		writeError(w, http.StatusBadGateway, "data store error", "")
		return
	}

	resp := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, toAlertResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListAgents returns the agents registered in the model platform project.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.ListAgents(r.Context())
	if err != nil {
		h.writeUpstreamFailure(w, err)
		return
	}

	resp := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, AgentResponse{ID: a.ID, Name: a.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

// advisoryHandler builds the handler for one advisory route. Both routes
// share this implementation; only the role differs.
func (h *Handler) advisoryHandler(role model.AdvisoryRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if strings.TrimSpace(query) == "" {
			writeError(w, http.StatusBadRequest, "query parameter is required", "")
			return
		}

		gen, err := h.advisory.Ask(r.Context(), role, query)
		if errors.Is(err, application.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "query parameter is required", "")
			return
		}
		if err != nil {
			h.writeUpstreamFailure(w, err)
			return
		}

		resp := AdvisoryResponse{Answer: gen.Answer}
		if r.URL.Query().Get("format") == "html" {
			resp.Answer = RenderMarkdown(gen.Answer)
		}
		if h.exposeRaw {
			resp.Raw = gen.Raw
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeUpstreamFailure maps model-platform failures onto 502 responses,
// echoing upstream status and body for diagnosability.
func (h *Handler) writeUpstreamFailure(w http.ResponseWriter, err error) {
	var authErr *driven.AuthError
	if errors.As(err, &authErr) {
		h.logger.Error("upstream authentication failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream authentication failed", "")
		return
	}

	var upstreamErr *driven.UpstreamError
	if errors.As(err, &upstreamErr) {
		h.logger.Error("model platform call failed", "status", upstreamErr.StatusCode, "body", upstreamErr.Body)
		writeError(w, http.StatusBadGateway, "model platform call failed", upstreamErr.Error())
		return
	}

	h.logger.Error("advisory call failed", "error", err)
	writeError(w, http.StatusBadGateway, "model platform call failed", "")
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
