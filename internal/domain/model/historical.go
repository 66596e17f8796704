package model

// HistoricalPoint is a single dated reading within a series.
type HistoricalPoint struct {
	Date  string
	Value float64
}

// HistoricalSeries groups the readings for one metric of one source,
// ordered by date ascending.
type HistoricalSeries struct {
	SourceID   string
	MetricID   string
	MetricName string
	Data       []HistoricalPoint
}

// HistoryFilter narrows a historical-data query. Empty fields match everything.
type HistoryFilter struct {
	SourceID string
	MetricID string
}
