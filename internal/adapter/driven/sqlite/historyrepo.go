package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.HistoryStore = (*HistoryRepo)(nil)

// HistoryRepo is the SQLite implementation of the HistoryStore port interface.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new HistoryRepo backed by the given DB.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// ListSeries returns historical readings grouped into per-source, per-metric
// series. Empty filter fields match everything; points are ordered by date
// ascending within each series.
func (r *HistoryRepo) ListSeries(ctx context.Context, filter model.HistoryFilter) ([]model.HistoricalSeries, error) {
	query := `
		SELECT source_id, metric_id, metric_name, date, value
		FROM historical_readings`

	var conds []string
	var args []any
	if filter.SourceID != "" {
		conds = append(conds, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if filter.MetricID != "" {
		conds = append(conds, "metric_id = ?")
		args = append(args, filter.MetricID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY source_id, metric_id, date"

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list historical readings: %w", err)
	}
	defer rows.Close()

	series := []model.HistoricalSeries{}
	for rows.Next() {
		var sourceID, metricID, metricName string
		var point model.HistoricalPoint
		if err := rows.Scan(&sourceID, &metricID, &metricName, &point.Date, &point.Value); err != nil {
			return nil, fmt.Errorf("scan historical reading: %w", err)
		}

		// Rows arrive sorted, so a new (source, metric) pair starts a new series.
		n := len(series)
		if n == 0 || series[n-1].SourceID != sourceID || series[n-1].MetricID != metricID {
			series = append(series, model.HistoricalSeries{
				SourceID:   sourceID,
				MetricID:   metricID,
				MetricName: metricName,
			})
			n++
		}
		series[n-1].Data = append(series[n-1].Data, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate historical readings: %w", err)
	}

	return series, nil
}
