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
var _ driven.SourceStore = (*SourceRepo)(nil)

// SourceRepo is the SQLite implementation of the SourceStore port interface.
type SourceRepo struct {
	db *DB
}

// NewSourceRepo creates a new SourceRepo backed by the given DB.
func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// ListAll returns every water source with its metrics and diseases attached.
func (r *SourceRepo) ListAll(ctx context.Context) ([]model.WaterSource, error) {
	const query = `SELECT id, name, location, type FROM water_sources ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list water sources: %w", err)
	}
	defer rows.Close()

	sources := []model.WaterSource{}
	for rows.Next() {
		var s model.WaterSource
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.Type); err != nil {
			return nil, fmt.Errorf("scan water source: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate water sources: %w", err)
	}

	for i := range sources {
		if err := r.attachDetail(ctx, &sources[i]); err != nil {
			return nil, err
		}
	}

	return sources, nil
}

// GetByID returns a single source with its metrics and diseases.
// Returns driven.ErrSourceNotFound on a miss.
func (r *SourceRepo) GetByID(ctx context.Context, sourceID string) (*model.WaterSource, error) {
	const query = `SELECT id, name, location, type FROM water_sources WHERE id = ?`

	var s model.WaterSource
	err := r.db.Reader.QueryRowContext(ctx, query, sourceID).Scan(&s.ID, &s.Name, &s.Location, &s.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get water source %s: %w", sourceID, driven.ErrSourceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get water source %s: %w", sourceID, err)
	}

	if err := r.attachDetail(ctx, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// attachDetail loads the metrics and diseases belonging to a source.
func (r *SourceRepo) attachDetail(ctx context.Context, s *model.WaterSource) error {
	metrics, err := r.metricsBySource(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Metrics = metrics

	diseases, err := r.diseasesBySource(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Diseases = diseases

	return nil
}

func (r *SourceRepo) metricsBySource(ctx context.Context, sourceID string) ([]model.Metric, error) {
	const query = `
		SELECT id, name, value, unit, safe_min, safe_max, status, icon
		FROM metrics WHERE source_id = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list metrics for %s: %w", sourceID, err)
	}
	defer rows.Close()

	metrics := []model.Metric{}
	for rows.Next() {
		m := model.Metric{SourceID: sourceID}
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Unit, &m.SafeMin, &m.SafeMax, &m.Status, &m.Icon); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

func (r *SourceRepo) diseasesBySource(ctx context.Context, sourceID string) ([]model.Disease, error) {
	const query = `
		SELECT id, name, risk_level, description, caused_by
		FROM diseases WHERE source_id = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list diseases for %s: %w", sourceID, err)
	}
	defer rows.Close()

	diseases := []model.Disease{}
	for rows.Next() {
		d := model.Disease{SourceID: sourceID}
		var causedBy string
		if err := rows.Scan(&d.ID, &d.Name, &d.RiskLevel, &d.Description, &causedBy); err != nil {
			return nil, fmt.Errorf("scan disease: %w", err)
		}
		if err := json.Unmarshal([]byte(causedBy), &d.CausedBy); err != nil {
			return nil, fmt.Errorf("decode caused_by for disease %s: %w", d.ID, err)
		}
		diseases = append(diseases, d)
	}

	return diseases, rows.Err()
}
