package model

// MetricStatus represents how a measured value compares to its safe range.
type MetricStatus string

const (
	MetricStatusSafe     MetricStatus = "safe"
	MetricStatusWarning  MetricStatus = "warning"
	MetricStatusCritical MetricStatus = "critical"
)

// RiskLevel represents the severity of a disease risk.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// AlertSeverity represents how urgent an alert is.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// PredictionStatus summarizes a quality prediction score.
type PredictionStatus string

const (
	PredictionStatusExcellent PredictionStatus = "excellent"
	PredictionStatusGood      PredictionStatus = "good"
	PredictionStatusModerate  PredictionStatus = "moderate"
	PredictionStatusPoor      PredictionStatus = "poor"
)
