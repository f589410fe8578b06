package model

import "time"

// SessionRecord is one stored analysis session.
type SessionRecord struct {
	ID              int64     `json:"id"`
	Kind            string    `json:"kind"` // session | batch_session
	SessionDir      string    `json:"session_dir"`
	Status          string    `json:"status"`
	TotalImages     int       `json:"total_images"`
	ProcessedImages int       `json:"processed_images"`
	ProcessingTime  float64   `json:"processing_time"`
	Confidence      float64   `json:"confidence_threshold"`
	IoU             float64   `json:"iou_threshold"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ItemRecord is one stored batch item result.
type ItemRecord struct {
	ID              int64  `json:"id"`
	SessionID       int64  `json:"session_id"`
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	TotalDetections int    `json:"total_detections"`
	Message         string `json:"message,omitempty"`
	AnnotatedPath   string `json:"annotated_path,omitempty"`
}
