package dto

// AnalysisConfig echoes the settings one analysis ran with.
type AnalysisConfig struct {
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	IoUThreshold         float64 `json:"iou_threshold"`
	AnnotatedImagePath   string  `json:"annotated_image_path,omitempty"`
	OutputDirectory      string  `json:"output_directory,omitempty"`
	TotalAnnotatedImages int     `json:"total_annotated_images,omitempty"`
}
