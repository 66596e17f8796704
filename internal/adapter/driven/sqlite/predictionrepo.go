package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PredictionStore = (*PredictionRepo)(nil)

// PredictionRepo is the SQLite implementation of the PredictionStore port interface.
type PredictionRepo struct {
	db *DB
}

// NewPredictionRepo creates a new PredictionRepo backed by the given DB.
func NewPredictionRepo(db *DB) *PredictionRepo {
	return &PredictionRepo{db: db}
}

// GetBySource returns the quality prediction for a source.
// Returns driven.ErrPredictionNotFound on a miss.
func (r *PredictionRepo) GetBySource(ctx context.Context, sourceID string) (*model.QualityPrediction, error) {
	const query = `
		SELECT source_id, score, status, description, improvement_steps
		FROM quality_predictions WHERE source_id = ?`

	var p model.QualityPrediction
	var steps string
	err := r.db.Reader.QueryRowContext(ctx, query, sourceID).
		Scan(&p.SourceID, &p.Score, &p.Status, &p.Description, &steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get prediction for %s: %w", sourceID, driven.ErrPredictionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction for %s: %w", sourceID, err)
	}

	if err := json.Unmarshal([]byte(steps), &p.ImprovementSteps); err != nil {
		return nil, fmt.Errorf("decode improvement_steps for %s: %w", sourceID, err)
	}

	return &p, nil
}
