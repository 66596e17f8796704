package driven

import (
	"context"
	"errors"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
)

var (
	// ErrSourceNotFound is returned when a water source lookup misses.
	ErrSourceNotFound = errors.New("water source not found")

	// ErrPredictionNotFound is returned when no prediction exists for a source.
	ErrPredictionNotFound = errors.New("quality prediction not found")
)

// SourceStore defines the driven port for water source lookups.
type SourceStore interface {
	// ListAll returns every monitored water source with its metrics and diseases.
	ListAll(ctx context.Context) ([]model.WaterSource, error)

	// GetByID returns a single source. Returns ErrSourceNotFound on a miss.
	GetByID(ctx context.Context, sourceID string) (*model.WaterSource, error)
}

// PredictionStore defines the driven port for quality prediction lookups.
type PredictionStore interface {
	// GetBySource returns the prediction for a source.
	// Returns ErrPredictionNotFound on a miss.
	GetBySource(ctx context.Context, sourceID string) (*model.QualityPrediction, error)
}

// HistoryStore defines the driven port for historical reading queries.
type HistoryStore interface {
	// ListSeries returns reading series matching the filter, grouped per
	// source and metric with points ordered by date ascending.
	ListSeries(ctx context.Context, filter model.HistoryFilter) ([]model.HistoricalSeries, error)
}

// AlertStore defines the driven port for alert queries.
type AlertStore interface {
	// ListAll returns all alerts, newest first.
	ListAll(ctx context.Context) ([]model.Alert, error)
}
