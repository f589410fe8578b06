package service

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"toolcheck/internal/archive"
	"toolcheck/internal/classify"
	"toolcheck/internal/detection"
	"toolcheck/internal/dto"
	"toolcheck/internal/logger"
	"toolcheck/internal/model"
	"toolcheck/internal/repository"
	"toolcheck/internal/session"
	"toolcheck/internal/toolset"
)

// ProgressNotifier receives one event per processed batch item.
// Implementations must not block the batch.
type ProgressNotifier interface {
	NotifyItem(sessionDir string, index, total int, item dto.BatchItemResult)
}

// Options are the per-request analysis settings.
type Options struct {
	Confidence    float64
	IoU           float64
	SaveAnnotated bool
}

// Analyzer drives detection, classification and artifact persistence
// for single images and archive batches.
type Analyzer struct {
	pool           *DetectorPool
	sessions       *session.Manager
	tools          *toolset.ToolSet
	reports        repository.ReportRepository // optional
	progress       ProgressNotifier            // optional
	logger         *logger.Logger
	maxBatchImages int
}

// NewAnalyzer wires the analyzer. reports and progress may be nil.
func NewAnalyzer(pool *DetectorPool, sessions *session.Manager, tools *toolset.ToolSet,
	reports repository.ReportRepository, progress ProgressNotifier,
	log *logger.Logger, maxBatchImages int) *Analyzer {
	return &Analyzer{
		pool:           pool,
		sessions:       sessions,
		tools:          tools,
		reports:        reports,
		progress:       progress,
		logger:         log,
		maxBatchImages: maxBatchImages,
	}
}

// AnalyzeImage runs detection and completeness classification over one
// image. Decode and inference failures become an error-status result;
// the returned error is reserved for system-level failures.
func (a *Analyzer) AnalyzeImage(imageBytes []byte, filename string, opts Options) (*dto.SingleResult, error) {
	det := a.pool.Acquire()
	defer a.pool.Release(det)

	raws, err := det.Predict(imageBytes, opts.Confidence, opts.IoU)
	if err != nil {
		a.logger.Error("Analysis failed for %s: %v", filename, err)
		return &dto.SingleResult{
			Outcome:    errorOutcome(a.tools, fmt.Sprintf("analysis failed: %v", err)),
			Detections: []detection.Record{},
			Config:     dto.AnalysisConfig{ConfidenceThreshold: opts.Confidence, IoUThreshold: opts.IoU},
		}, nil
	}

	records := detection.NormalizeAll(raws, a.tools)
	outcome := classify.Classify(records, a.tools)

	annotatedPath := ""
	if opts.SaveAnnotated {
		dir, err := a.sessions.Create(session.PrefixSingle)
		if err != nil {
			return nil, fmt.Errorf("allocate session: %w", err)
		}
		if path, err := det.SaveAnnotated(imageBytes, records, filename, dir); err != nil {
			a.logger.Warning("Could not persist annotated image for %s: %v", filename, err)
		} else {
			annotatedPath = path
		}
	}

	return &dto.SingleResult{
		Outcome:    outcome,
		Detections: records,
		Config: dto.AnalysisConfig{
			ConfidenceThreshold: opts.Confidence,
			IoUThreshold:        opts.IoU,
			AnnotatedImagePath:  annotatedPath,
		},
	}, nil
}

// AnalyzeArchive classifies every image entry of a ZIP payload. Archive
// level failures (bad container, no image entries) are reported inside
// the SessionReport, not returned; per-item failures are isolated as
// error items. The returned error is reserved for system-level failures.
func (a *Analyzer) AnalyzeArchive(zipBytes []byte, opts Options) (*dto.SessionReport, error) {
	start := time.Now()

	reader, err := archive.NewReader(zipBytes)
	if err != nil {
		a.logger.Error("Batch rejected: %v", err)
		return errorReport("invalid zip archive", opts, time.Since(start)), nil
	}

	names := reader.ImageEntries()
	if len(names) == 0 {
		return errorReport("no image entries found in archive", opts, time.Since(start)), nil
	}
	if a.maxBatchImages > 0 && len(names) > a.maxBatchImages {
		a.logger.Warning("Archive holds %d images, processing first %d", len(names), a.maxBatchImages)
		names = names[:a.maxBatchImages]
	}

	sessionDir, err := a.sessions.Create(session.PrefixBatch)
	if err != nil {
		return nil, fmt.Errorf("allocate batch session: %w", err)
	}
	a.logger.Info("Batch session started: %s (%d images)", sessionDir, len(names))

	det := a.pool.Acquire()
	defer a.pool.Release(det)

	results := make([]dto.BatchItemResult, 0, len(names))
	summary := make(map[classify.Status]int)
	annotatedCount := 0

	for i, name := range names {
		item := a.processEntry(reader, det, name, sessionDir, opts)
		if item.AnnotatedImagePath != "" {
			annotatedCount++
		}
		results = append(results, item)
		summary[item.Status]++

		if a.progress != nil {
			a.progress.NotifyItem(sessionDir, i+1, len(names), item)
		}
	}

	elapsed := roundSeconds(time.Since(start))
	report := &dto.SessionReport{
		Status:          dto.ReportCompleted,
		TotalImages:     len(names),
		ProcessedImages: len(results),
		Results:         results,
		ProcessingTime:  elapsed,
		Summary:         summary,
		Message:         fmt.Sprintf("Processed %d of %d images, results in %s", len(results), len(names), sessionDir),
		Config: &dto.AnalysisConfig{
			ConfidenceThreshold:  opts.Confidence,
			IoUThreshold:         opts.IoU,
			OutputDirectory:      sessionDir,
			TotalAnnotatedImages: annotatedCount,
		},
	}

	a.persistReport(report, sessionDir)

	return report, nil
}

// processEntry analyzes one archive entry, converting every failure
// into an error-status item so the batch continues.
func (a *Analyzer) processEntry(reader *archive.Reader, det Detector, name, sessionDir string, opts Options) dto.BatchItemResult {
	imageBytes, err := reader.ReadEntry(name)
	if err != nil {
		a.logger.Error("Batch item %s failed: %v", name, err)
		return errorItem(a.tools, name, fmt.Sprintf("read failed: %v", err))
	}

	raws, err := det.Predict(imageBytes, opts.Confidence, opts.IoU)
	if err != nil {
		a.logger.Error("Batch item %s failed: %v", name, err)
		return errorItem(a.tools, name, fmt.Sprintf("processing failed: %v", err))
	}

	records := detection.NormalizeAll(raws, a.tools)
	outcome := classify.Classify(records, a.tools)

	annotatedPath := ""
	if opts.SaveAnnotated {
		if path, err := det.SaveAnnotated(imageBytes, records, name, sessionDir); err != nil {
			a.logger.Warning("Could not persist annotated image for %s: %v", name, err)
		} else {
			annotatedPath = path
		}
	}

	return dto.BatchItemResult{
		Filename:           name,
		Outcome:            outcome,
		AnnotatedImagePath: annotatedPath,
	}
}

// persistReport stores the batch outcome for the history endpoint.
// Storage trouble is logged, never fatal to the batch.
func (a *Analyzer) persistReport(report *dto.SessionReport, sessionDir string) {
	if a.reports == nil {
		return
	}

	record := &model.SessionRecord{
		Kind:            session.PrefixBatch,
		SessionDir:      filepath.Base(sessionDir),
		Status:          report.Status,
		TotalImages:     report.TotalImages,
		ProcessedImages: report.ProcessedImages,
		ProcessingTime:  report.ProcessingTime,
		Confidence:      report.Config.ConfidenceThreshold,
		IoU:             report.Config.IoUThreshold,
		Message:         report.Message,
	}

	items := make([]model.ItemRecord, 0, len(report.Results))
	for _, res := range report.Results {
		items = append(items, model.ItemRecord{
			Filename:        res.Filename,
			Status:          string(res.Status),
			TotalDetections: res.TotalDetections,
			Message:         res.Message,
			AnnotatedPath:   res.AnnotatedImagePath,
		})
	}

	if _, err := a.reports.Insert(record, items); err != nil {
		a.logger.Error("Could not persist session report: %v", err)
	}
}

func errorItem(tools *toolset.ToolSet, name, message string) dto.BatchItemResult {
	return dto.BatchItemResult{
		Filename: name,
		Outcome:  errorOutcome(tools, message),
	}
}

func errorOutcome(tools *toolset.ToolSet, message string) classify.Outcome {
	return classify.Outcome{
		Status:        classify.StatusError,
		ExpectedCount: tools.Size(),
		MissingTools:  []string{},
		ExtraTools:    []string{},
		DetectedTools: []string{},
		Message:       message,
	}
}

func errorReport(message string, opts Options, elapsed time.Duration) *dto.SessionReport {
	return &dto.SessionReport{
		Status:         dto.ReportError,
		Results:        []dto.BatchItemResult{},
		Summary:        map[classify.Status]int{},
		ProcessingTime: roundSeconds(elapsed),
		Message:        message,
		Config: &dto.AnalysisConfig{
			ConfidenceThreshold: opts.Confidence,
			IoUThreshold:        opts.IoU,
		},
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
