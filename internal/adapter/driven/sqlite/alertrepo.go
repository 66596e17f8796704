package sqlite

import (
	"context"
	"fmt"

	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/model"
	"github.com/Blue-Waters-bots/blue-waters-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AlertStore = (*AlertRepo)(nil)

// AlertRepo is the SQLite implementation of the AlertStore port interface.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new AlertRepo backed by the given DB.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// ListAll returns all alerts, newest first.
func (r *AlertRepo) ListAll(ctx context.Context) ([]model.Alert, error) {
	const query = `
		SELECT id, source_id, severity, message, created_at
		FROM alerts ORDER BY created_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []model.Alert{}
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.SourceID, &a.Severity, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}
