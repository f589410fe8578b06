package dto

import "toolcheck/internal/classify"

// Batch report statuses.
const (
	ReportCompleted = "completed"
	ReportError     = "error"
)

// BatchItemResult is the outcome of one archive entry. Items that
// failed before classification carry StatusError and the failure
// message in the embedded outcome.
type BatchItemResult struct {
	Filename string `json:"filename"`
	classify.Outcome
	AnnotatedImagePath string `json:"annotated_image_path,omitempty"`
}

// SessionReport aggregates one batch run.
type SessionReport struct {
	Status          string                  `json:"status"`
	TotalImages     int                     `json:"total_images"`
	ProcessedImages int                     `json:"processed_images"`
	Results         []BatchItemResult       `json:"results"`
	ProcessingTime  float64                 `json:"processing_time"`
	Summary         map[classify.Status]int `json:"summary"`
	Message         string                  `json:"message,omitempty"`
	Config          *AnalysisConfig         `json:"config,omitempty"`
}
