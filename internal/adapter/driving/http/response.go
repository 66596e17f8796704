package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes the standard JSON error body. detail is optional and
// carries upstream diagnostics when present.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, errorResponse{Error: message, Detail: detail})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// MetricResponse is the JSON representation of a water-quality metric.
type MetricResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	SafeRange [2]float64 `json:"safeRange"`
	Status    string     `json:"status"`
	Icon      string     `json:"icon"`
}

// DiseaseResponse is the JSON representation of a waterborne disease risk.
type DiseaseResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	RiskLevel   string   `json:"riskLevel"`
	Description string   `json:"description"`
	CausedBy    []string `json:"causedBy"`
}

// WaterSourceResponse is the JSON representation of a monitored water source.
type WaterSourceResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Location string            `json:"location"`
	Type     string            `json:"type"`
	Metrics  []MetricResponse  `json:"metrics"`
	Diseases []DiseaseResponse `json:"diseases"`
}

// PredictionResponse is the JSON representation of a quality prediction.
type PredictionResponse struct {
	Score            int      `json:"score"`
	Status           string   `json:"status"`
	Description      string   `json:"description"`
	ImprovementSteps []string `json:"improvementSteps"`
}

// HistoricalPointResponse is a single dated reading.
type HistoricalPointResponse struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// HistoricalSeriesResponse groups the readings for one metric of one source.
type HistoricalSeriesResponse struct {
	SourceID   string                    `json:"sourceId"`
	MetricID   string                    `json:"metricId"`
	MetricName string                    `json:"metricName"`
	Data       []HistoricalPointResponse `json:"data"`
}

// AlertResponse is the JSON representation of an alert.
type AlertResponse struct {
	ID        string `json:"id"`
	SourceID  string `json:"sourceId"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// AgentResponse is the JSON representation of a platform agent.
type AgentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdvisoryResponse is the JSON body of a successful advisory call. Raw is
// omitted unless the service is configured to expose upstream payloads.
type AdvisoryResponse struct {
	Answer string          `json:"answer"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toWaterSourceResponse converts a domain WaterSource to its JSON representation.
func toWaterSourceResponse(s model.WaterSource) WaterSourceResponse {
	metrics := make([]MetricResponse, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		metrics = append(metrics, MetricResponse{
			ID:        m.ID,
			Name:      m.Name,
			Value:     m.Value,
			Unit:      m.Unit,
			SafeRange: [2]float64{m.SafeMin, m.SafeMax},
			Status:    string(m.Status),
			Icon:      m.Icon,
		})
	}

	diseases := make([]DiseaseResponse, 0, len(s.Diseases))
	for _, d := range s.Diseases {
		causedBy := d.CausedBy
		if causedBy == nil {
			causedBy = []string{}
		}
		diseases = append(diseases, DiseaseResponse{
			ID:          d.ID,
			Name:        d.Name,
			RiskLevel:   string(d.RiskLevel),
			Description: d.Description,
			CausedBy:    causedBy,
		})
	}

	return WaterSourceResponse{
		ID:       s.ID,
		Name:     s.Name,
		Location: s.Location,
		Type:     s.Type,
		Metrics:  metrics,
		Diseases: diseases,
	}
}

// toPredictionResponse converts a domain QualityPrediction to its JSON representation.
func toPredictionResponse(p model.QualityPrediction) PredictionResponse {
	steps := p.ImprovementSteps
	if steps == nil {
		steps = []string{}
	}

	return PredictionResponse{
		Score:            p.Score,
		Status:           string(p.Status),
		Description:      p.Description,
		ImprovementSteps: steps,
	}
}

// toHistoricalSeriesResponse converts a domain HistoricalSeries to its JSON representation.
func toHistoricalSeriesResponse(s model.HistoricalSeries) HistoricalSeriesResponse {
	points := make([]HistoricalPointResponse, 0, len(s.Data))
	for _, p := range s.Data {
		points = append(points, HistoricalPointResponse{Date: p.Date, Value: p.Value})
	}

	return HistoricalSeriesResponse{
		SourceID:   s.SourceID,
		MetricID:   s.MetricID,
		MetricName: s.MetricName,
		Data:       points,
	}
}

// toAlertResponse converts a domain Alert to its JSON representation.
func toAlertResponse(a model.Alert) AlertResponse {
	return AlertResponse{
		ID:        a.ID,
		SourceID:  a.SourceID,
		Severity:  string(a.Severity),
		Message:   a.Message,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
