// Package detector wraps the OpenCV DNN recognizer behind the detection
// collaborator contract: predict over raw image bytes, and persist
// annotated copies of analyzed images.
package detector

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"toolcheck/internal/detection"
	"toolcheck/internal/logger"
)

const inputSize = 640

// Box colors cycle per class id when drawing annotations.
var boxColors = []color.RGBA{
	{0, 255, 0, 0},
	{255, 0, 0, 0},
	{0, 0, 255, 0},
	{255, 255, 0, 0},
	{255, 0, 255, 0},
	{0, 255, 255, 0},
	{128, 0, 128, 0},
	{255, 165, 0, 0},
	{0, 128, 128, 0},
	{128, 128, 0, 0},
	{128, 0, 0, 0},
}

// Service runs DNN inference over single images. One instance holds one
// loaded network; it is not safe for concurrent use and is expected to
// be checked out of a pool.
type Service struct {
	net        gocv.Net
	modelPath  string
	configPath string
	loaded     bool
	logger     *logger.Logger
}

// NewService loads the network from the model path. A missing or broken
// model is reported as a warning; the service stays constructible so the
// server can run, and Predict fails per call instead.
func NewService(modelPath, configPath string, log *logger.Logger) *Service {
	s := &Service{
		modelPath:  modelPath,
		configPath: configPath,
		logger:     log,
	}

	if err := s.initializeNet(); err != nil {
		s.logger.Warning("Could not initialize detection network: %v", err)
		return s
	}

	return s
}

// initializeNet loads the network from the model and optional config file.
func (s *Service) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	var net gocv.Net
	if s.configPath != "" {
		net = gocv.ReadNet(s.modelPath, s.configPath)
	} else {
		net = gocv.ReadNet(s.modelPath, "")
	}
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return fmt.Errorf("failed to set network target: %w", err)
	}

	s.net = net
	s.loaded = true
	s.logger.Info("Detection network initialized from %s", s.modelPath)
	return nil
}

// Close releases the loaded network.
func (s *Service) Close() {
	if s.loaded {
		s.net.Close()
		s.loaded = false
	}
}

// Predict decodes the image, runs the network and returns the
// detections that survive the confidence filter and non-maximum
// suppression at the given IoU threshold.
func (s *Service) Predict(imageBytes []byte, confidence, iou float64) ([]detection.Raw, error) {
	if !s.loaded {
		return nil, fmt.Errorf("detection network not initialized")
	}

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrDecode, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", detection.ErrDecode)
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	cols := float32(mat.Cols())
	rows := float32(mat.Rows())

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()
	for i := 0; i < reshaped.Rows(); i++ {
		score := reshaped.GetFloatAt(i, 2)
		if float64(score) < confidence {
			continue
		}

		classID := int(reshaped.GetFloatAt(i, 1))
		x1 := int(reshaped.GetFloatAt(i, 3) * cols)
		y1 := int(reshaped.GetFloatAt(i, 4) * rows)
		x2 := int(reshaped.GetFloatAt(i, 5) * cols)
		y2 := int(reshaped.GetFloatAt(i, 6) * rows)

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		scores = append(scores, score)
		classIDs = append(classIDs, classID)
	}

	var raws []detection.Raw
	for _, idx := range gocv.NMSBoxes(boxes, scores, float32(confidence), float32(iou)) {
		box := boxes[idx]
		raws = append(raws, detection.Raw{
			ClassID:    classIDs[idx],
			Confidence: float64(scores[idx]),
			BBox: [4]float64{
				float64(box.Min.X), float64(box.Min.Y),
				float64(box.Max.X), float64(box.Max.Y),
			},
		})
	}

	return raws, nil
}

// SaveAnnotated draws the detections onto the image and writes
// annotated_<basename> into outputDir, returning the written path.
func (s *Service) SaveAnnotated(imageBytes []byte, records []detection.Record, filename, outputDir string) (string, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", detection.ErrDecode, err)
	}
	defer mat.Close()

	for _, rec := range records {
		clr := boxColors[((rec.ClassID%len(boxColors))+len(boxColors))%len(boxColors)]
		rect := image.Rect(int(rec.BBox[0]), int(rec.BBox[1]), int(rec.BBox[2]), int(rec.BBox[3]))
		if err := gocv.Rectangle(&mat, rect, clr, 2); err != nil {
			return "", fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s: %.2f", rec.ClassName, rec.Confidence)
		pt := image.Pt(rect.Min.X, rect.Min.Y-5)
		if err := gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.5, clr, 2); err != nil {
			return "", fmt.Errorf("failed to draw label: %w", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outPath := filepath.Join(outputDir, "annotated_"+filepath.Base(filename))
	if ok := gocv.IMWrite(outPath, mat); !ok {
		return "", fmt.Errorf("failed to write annotated image %s", outPath)
	}

	return outPath, nil
}
