package model

import "encoding/json"

// AdvisoryRole selects the persona applied to a user query before it is sent
// to the model. It is the only behavioral difference between the two public
// advisory routes.
type AdvisoryRole string

const (
	RoleWaterQuality AdvisoryRole = "water-quality"
	RoleHealthRisk   AdvisoryRole = "health-risk"
)

// Preamble returns the system persona text prepended to every query sent
// under this role. Unknown roles fall back to the water-quality persona.
func (r AdvisoryRole) Preamble() string {
	switch r {
	case RoleHealthRisk:
		return "You are a public-health advisory assistant. Answer the following question " +
			"about the health risks of water contamination, citing contaminant thresholds " +
			"and recommended protective actions where relevant."
	default:
		return "You are a water-quality advisory assistant for industrial and municipal " +
			"water monitoring. Answer the following question about water quality, citing " +
			"regulatory limits and treatment options where relevant."
	}
}

// Generation is a successful model answer. Raw carries the upstream payload
// untouched for diagnostics; it is only exposed to API callers when the
// service is configured to do so.
type Generation struct {
	Answer string
	Raw    json.RawMessage
}

// Agent is a hosted agent registered in the model platform project.
type Agent struct {
	ID   string
	Name string
}
