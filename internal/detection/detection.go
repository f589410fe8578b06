package detection

import (
	"errors"

	"toolcheck/internal/toolset"
)

// ErrDecode signals that an image payload could not be decoded.
var ErrDecode = errors.New("cannot decode image")

// Raw is one detection as emitted by the recognizer: class id,
// confidence and a pixel-coordinate bounding box [x1, y1, x2, y2].
type Raw struct {
	ClassID    int
	Confidence float64
	BBox       [4]float64
}

// Record is the canonical, label-resolved form of a detection.
type Record struct {
	ClassID    int        `json:"class_id"`
	ClassName  string     `json:"class_name"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// Normalize resolves the class label through the tool set, falling back
// to "class_<id>" for unconfigured ids. Confidence and bounding box pass
// through unchanged.
func Normalize(raw Raw, tools *toolset.ToolSet) Record {
	return Record{
		ClassID:    raw.ClassID,
		ClassName:  tools.Label(raw.ClassID),
		Confidence: raw.Confidence,
		BBox:       raw.BBox,
	}
}

// NormalizeAll normalizes a detection list, preserving input order.
func NormalizeAll(raws []Raw, tools *toolset.ToolSet) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw, tools))
	}
	return records
}
