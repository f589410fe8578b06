package service

import "toolcheck/internal/detection"

// Detector is the detection collaborator contract consumed by the
// analyzer. Implementations hold mutable model state and are not safe
// for concurrent use; callers go through the pool.
type Detector interface {
	// Predict returns the detections for one image, or a
	// detection.ErrDecode-wrapped error for an undecodable payload.
	Predict(image []byte, confidence, iou float64) ([]detection.Raw, error)

	// SaveAnnotated persists an annotated copy of the image under
	// outputDir, named after the original file, and returns its path.
	SaveAnnotated(image []byte, records []detection.Record, filename, outputDir string) (string, error)

	Close()
}

// DetectorPool serializes access to a fixed set of detector instances
// with a bounded channel checkout. With a single instance it degrades
// to plain mutual exclusion.
type DetectorPool struct {
	detectors chan Detector
	all       []Detector
}

// NewDetectorPool builds a pool over the given instances.
func NewDetectorPool(detectors []Detector) *DetectorPool {
	pool := &DetectorPool{
		detectors: make(chan Detector, len(detectors)),
		all:       detectors,
	}
	for _, d := range detectors {
		pool.detectors <- d
	}
	return pool
}

// Acquire checks a detector out of the pool, blocking until one is free.
func (p *DetectorPool) Acquire() Detector {
	return <-p.detectors
}

// Release returns a detector to the pool.
func (p *DetectorPool) Release(d Detector) {
	p.detectors <- d
}

// Close releases every detector instance.
func (p *DetectorPool) Close() {
	for _, d := range p.all {
		d.Close()
	}
}
