package service

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"toolcheck/internal/classify"
	"toolcheck/internal/detection"
	"toolcheck/internal/dto"
	"toolcheck/internal/logger"
	"toolcheck/internal/model"
	"toolcheck/internal/repository"
	"toolcheck/internal/session"
	"toolcheck/internal/toolset"
)

// ========================================
// Test Setup Helpers
// ========================================

type fakeDetector struct {
	predict     func(image []byte, confidence, iou float64) ([]detection.Raw, error)
	annotateErr error
}

func (f *fakeDetector) Predict(image []byte, confidence, iou float64) ([]detection.Raw, error) {
	return f.predict(image, confidence, iou)
}

func (f *fakeDetector) SaveAnnotated(image []byte, records []detection.Record, filename, outputDir string) (string, error) {
	if f.annotateErr != nil {
		return "", f.annotateErr
	}
	return filepath.Join(outputDir, "annotated_"+filepath.Base(filename)), nil
}

func (f *fakeDetector) Close() {}

type fakeNotifier struct {
	events []int
	items  []dto.BatchItemResult
}

func (f *fakeNotifier) NotifyItem(sessionDir string, index, total int, item dto.BatchItemResult) {
	f.events = append(f.events, index)
	f.items = append(f.items, item)
}

type fakeRepository struct {
	session *model.SessionRecord
	items   []model.ItemRecord
}

func (f *fakeRepository) Insert(session *model.SessionRecord, items []model.ItemRecord) (int64, error) {
	f.session = session
	f.items = items
	return 1, nil
}

func (f *fakeRepository) Recent(limit int) ([]model.SessionRecord, error) {
	return nil, nil
}

func (f *fakeRepository) ItemsBySessionID(sessionID int64) ([]model.ItemRecord, error) {
	return nil, nil
}

func testToolSet(t *testing.T) *toolset.ToolSet {
	t.Helper()

	names := make([]string, 11)
	for i := range names {
		names[i] = fmt.Sprintf("T%d", i)
	}
	return toolset.New(names)
}

func fullKitRaws() []detection.Raw {
	raws := make([]detection.Raw, 0, 11)
	for id := 0; id < 11; id++ {
		raws = append(raws, detection.Raw{ClassID: id, Confidence: 0.9})
	}
	return raws
}

type zipEntry struct {
	name    string
	content []byte
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create zip entry %s: %v", e.name, err)
		}
		if _, err := w.Write(e.content); err != nil {
			t.Fatalf("Failed to write zip entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func newTestAnalyzer(t *testing.T, det Detector, notifier ProgressNotifier, reports repository.ReportRepository, maxImages int) *Analyzer {
	t.Helper()

	sessions, err := session.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create session manager: %v", err)
	}
	log := logger.New(t.TempDir())
	pool := NewDetectorPool([]Detector{det})

	return NewAnalyzer(pool, sessions, testToolSet(t), reports, notifier, log, maxImages)
}

func defaultOptions() Options {
	return Options{Confidence: 0.25, IoU: 0.45, SaveAnnotated: true}
}

// ========================================
// Single Image Tests
// ========================================

func TestAnalyzeImageComplete(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	result, err := analyzer.AnalyzeImage([]byte("img"), "kit.jpg", defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if result.Status != classify.StatusComplete {
		t.Errorf("Expected status complete, got %q", result.Status)
	}
	if len(result.Detections) != 11 {
		t.Errorf("Expected 11 detections, got %d", len(result.Detections))
	}
	if result.Config.AnnotatedImagePath == "" {
		t.Error("Expected an annotated image path")
	}
	if filepath.Base(result.Config.AnnotatedImagePath) != "annotated_kit.jpg" {
		t.Errorf("Unexpected annotated name: %s", result.Config.AnnotatedImagePath)
	}
}

func TestAnalyzeImageDecodeFailureBecomesErrorResult(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return nil, fmt.Errorf("%w: garbage bytes", detection.ErrDecode)
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	result, err := analyzer.AnalyzeImage([]byte("not an image"), "junk.jpg", defaultOptions())
	if err != nil {
		t.Fatalf("Decode failure must not surface as an error: %v", err)
	}
	if result.Status != classify.StatusError {
		t.Errorf("Expected status error, got %q", result.Status)
	}
}

func TestAnalyzeImageAnnotateFailureTolerated(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
		annotateErr: fmt.Errorf("disk full"),
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	result, err := analyzer.AnalyzeImage([]byte("img"), "kit.jpg", defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if result.Status != classify.StatusComplete {
		t.Errorf("Annotation failure must not change the status, got %q", result.Status)
	}
	if result.Config.AnnotatedImagePath != "" {
		t.Errorf("Expected empty annotated path, got %q", result.Config.AnnotatedImagePath)
	}
}

// ========================================
// Batch Tests
// ========================================

func TestAnalyzeArchiveIsolatesItemFailure(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			if string(image) == "broken" {
				return nil, fmt.Errorf("%w: truncated", detection.ErrDecode)
			}
			return fullKitRaws(), nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	data := buildZip(t, []zipEntry{
		{"one.jpg", []byte("ok")},
		{"two.jpg", []byte("broken")},
		{"three.jpg", []byte("ok")},
	})

	report, err := analyzer.AnalyzeArchive(data, defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}

	if report.Status != dto.ReportCompleted {
		t.Fatalf("Expected completed report, got %q", report.Status)
	}
	if report.TotalImages != 3 || report.ProcessedImages != 3 {
		t.Errorf("Expected 3/3 images, got %d/%d", report.TotalImages, report.ProcessedImages)
	}
	if report.Summary[classify.StatusComplete] != 2 || report.Summary[classify.StatusError] != 1 {
		t.Errorf("Unexpected summary: %v", report.Summary)
	}
	if report.Results[1].Filename != "two.jpg" || report.Results[1].Status != classify.StatusError {
		t.Errorf("Expected the second item to fail, got %+v", report.Results[1])
	}
	if report.Results[0].Status != classify.StatusComplete || report.Results[2].Status != classify.StatusComplete {
		t.Error("Surrounding items must classify normally")
	}
}

func TestAnalyzeArchiveExcludesNonImageEntries(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	data := buildZip(t, []zipEntry{
		{"a.jpg", []byte("a")},
		{"b.JPG", []byte("b")},
		{"c.png", []byte("c")},
		{"notes.txt", []byte("not an image")},
	})

	report, err := analyzer.AnalyzeArchive(data, defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}
	if report.TotalImages != 3 {
		t.Errorf("Expected 3 images, got %d", report.TotalImages)
	}
}

func TestAnalyzeArchiveWithoutImages(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			t.Fatal("Predict must not be called for an imageless archive")
			return nil, nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	data := buildZip(t, []zipEntry{{"readme.txt", []byte("x")}})

	report, err := analyzer.AnalyzeArchive(data, defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}

	if report.Status != dto.ReportError {
		t.Errorf("Expected error report, got %q", report.Status)
	}
	if report.TotalImages != 0 || report.ProcessedImages != 0 {
		t.Errorf("Expected zero counts, got %d/%d", report.TotalImages, report.ProcessedImages)
	}
	if len(report.Results) != 0 || len(report.Summary) != 0 {
		t.Errorf("Expected empty results and summary, got %v / %v", report.Results, report.Summary)
	}
}

func TestAnalyzeArchiveBadContainer(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return nil, nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	report, err := analyzer.AnalyzeArchive([]byte("definitely not a zip"), defaultOptions())
	if err != nil {
		t.Fatalf("Archive failure must be reported, not returned: %v", err)
	}
	if report.Status != dto.ReportError {
		t.Errorf("Expected error report, got %q", report.Status)
	}
	if len(report.Results) != 0 {
		t.Errorf("Expected empty results, got %v", report.Results)
	}
}

func TestAnalyzeArchiveCapsImageCount(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 2)

	data := buildZip(t, []zipEntry{
		{"a.jpg", []byte("a")},
		{"b.jpg", []byte("b")},
		{"c.jpg", []byte("c")},
	})

	report, err := analyzer.AnalyzeArchive(data, defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}
	if report.TotalImages != 2 || len(report.Results) != 2 {
		t.Errorf("Expected the batch capped at 2, got %d results", len(report.Results))
	}
}

func TestAnalyzeArchiveCountsAnnotatedArtifacts(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
		annotateErr: fmt.Errorf("write refused"),
	}
	analyzer := newTestAnalyzer(t, det, nil, nil, 100)

	data := buildZip(t, []zipEntry{{"a.jpg", []byte("a")}, {"b.jpg", []byte("b")}})

	report, err := analyzer.AnalyzeArchive(data, defaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}
	if report.Status != dto.ReportCompleted {
		t.Errorf("Annotation failures must not fail the batch, got %q", report.Status)
	}
	if report.Config.TotalAnnotatedImages != 0 {
		t.Errorf("Expected 0 annotated images, got %d", report.Config.TotalAnnotatedImages)
	}
	for _, res := range report.Results {
		if res.AnnotatedImagePath != "" {
			t.Errorf("Expected empty annotated path for %s", res.Filename)
		}
	}
}

func TestAnalyzeArchiveNotifiesProgress(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
	}
	notifier := &fakeNotifier{}
	analyzer := newTestAnalyzer(t, det, notifier, nil, 100)

	data := buildZip(t, []zipEntry{{"a.jpg", []byte("a")}, {"b.jpg", []byte("b")}})

	if _, err := analyzer.AnalyzeArchive(data, defaultOptions()); err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}

	if len(notifier.events) != 2 {
		t.Fatalf("Expected 2 progress events, got %d", len(notifier.events))
	}
	if notifier.events[0] != 1 || notifier.events[1] != 2 {
		t.Errorf("Expected indexes 1,2, got %v", notifier.events)
	}
	if notifier.items[0].Filename != "a.jpg" || notifier.items[1].Filename != "b.jpg" {
		t.Errorf("Unexpected event items: %+v", notifier.items)
	}
}

func TestAnalyzeArchivePersistsReport(t *testing.T) {
	det := &fakeDetector{
		predict: func(image []byte, confidence, iou float64) ([]detection.Raw, error) {
			return fullKitRaws(), nil
		},
	}
	repo := &fakeRepository{}
	analyzer := newTestAnalyzer(t, det, nil, repo, 100)

	data := buildZip(t, []zipEntry{{"a.jpg", []byte("a")}, {"b.jpg", []byte("b")}})

	if _, err := analyzer.AnalyzeArchive(data, defaultOptions()); err != nil {
		t.Fatalf("AnalyzeArchive failed: %v", err)
	}

	if repo.session == nil {
		t.Fatal("Expected the session record to be stored")
	}
	if repo.session.Kind != session.PrefixBatch || repo.session.TotalImages != 2 {
		t.Errorf("Unexpected stored session: %+v", repo.session)
	}
	if len(repo.items) != 2 {
		t.Errorf("Expected 2 stored items, got %d", len(repo.items))
	}
}

// ========================================
// Detector Pool Tests
// ========================================

func TestDetectorPoolRoundTrip(t *testing.T) {
	a := &fakeDetector{}
	b := &fakeDetector{}
	pool := NewDetectorPool([]Detector{a, b})

	first := pool.Acquire()
	second := pool.Acquire()
	if first == second {
		t.Fatal("Pool handed out the same instance twice")
	}

	pool.Release(first)
	third := pool.Acquire()
	if third != first {
		t.Error("Expected the released instance back")
	}
	pool.Release(second)
	pool.Release(third)
}
