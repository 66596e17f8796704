package model

// Metric is a single water-quality measurement attached to a source,
// e.g. nitrate concentration or pH.
type Metric struct {
	ID       string
	Name     string
	Value    float64
	Unit     string
	SafeMin  float64
	SafeMax  float64
	Status   MetricStatus
	Icon     string
	SourceID string
}

// InSafeRange reports whether the current value falls inside [SafeMin, SafeMax].
func (m Metric) InSafeRange() bool {
	return m.Value >= m.SafeMin && m.Value <= m.SafeMax
}

// Disease is a waterborne health risk associated with a source's current
// contaminant profile.
type Disease struct {
	ID          string
	Name        string
	RiskLevel   RiskLevel
	Description string
	CausedBy    []string
	SourceID    string
}

// WaterSource is a monitored body of water with its current metrics and the
// diseases linked to its contaminant levels.
type WaterSource struct {
	ID       string
	Name     string
	Location string
	Type     string
	Metrics  []Metric
	Diseases []Disease
}
