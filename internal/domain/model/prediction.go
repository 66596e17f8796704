package model

// QualityPrediction is the forecast water-quality assessment for a source.
type QualityPrediction struct {
	SourceID         string
	Score            int
	Status           PredictionStatus
	Description      string
	ImprovementSteps []string
}
