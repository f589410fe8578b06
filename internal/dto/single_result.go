package dto

import (
	"toolcheck/internal/classify"
	"toolcheck/internal/detection"
)

// SingleResult is the response of one single-image analysis.
type SingleResult struct {
	classify.Outcome
	Detections []detection.Record `json:"detections"`
	Config     AnalysisConfig     `json:"config"`
}
