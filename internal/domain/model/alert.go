package model

import "time"

// Alert is an operator-facing notification about a water source, e.g. a
// contaminant exceeding its safe range.
type Alert struct {
	ID        string
	SourceID  string
	Severity  AlertSeverity
	Message   string
	CreatedAt time.Time
}
