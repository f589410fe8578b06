package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"toolcheck/internal/config"
	"toolcheck/internal/faults"
	"toolcheck/internal/logger"
	"toolcheck/internal/service"
)

// AnalyzeHandler accepts one image upload plus threshold parameters and
// returns the completeness classification for it.
func AnalyzeHandler(svc *service.Analyzer, cfg *config.Config, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		imageBytes, filename, err := readUpload(r, cfg.MaxArchiveSize)
		if err != nil {
			respondError(w, err.Error(), faults.HTTPStatus(faults.Classify(err)))
			return
		}

		contentType := http.DetectContentType(imageBytes)
		if !strings.HasPrefix(contentType, "image/") {
			respondError(w, faults.ErrNotAnImage.Error(), faults.HTTPStatus(faults.KindInput))
			return
		}

		opts, err := parseOptions(r, cfg)
		if err != nil {
			respondError(w, err.Error(), faults.HTTPStatus(faults.Classify(err)))
			return
		}

		result, err := svc.AnalyzeImage(imageBytes, filename, opts)
		if err != nil {
			log.Error("Image analysis failed: %v", err)
			respondError(w, "Internal error during analysis", faults.HTTPStatus(faults.Classify(err)))
			return
		}

		respondJSON(w, result, http.StatusOK)
	}
}

// AnalyzeBatchHandler accepts a ZIP archive of images and returns the
// aggregated session report.
func AnalyzeBatchHandler(svc *service.Analyzer, cfg *config.Config, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		zipBytes, filename, err := readUpload(r, cfg.MaxArchiveSize)
		if err != nil {
			respondError(w, err.Error(), faults.HTTPStatus(faults.Classify(err)))
			return
		}

		if !strings.HasSuffix(strings.ToLower(filename), ".zip") {
			respondError(w, faults.ErrNotAnArchive.Error(), faults.HTTPStatus(faults.KindInput))
			return
		}

		opts, err := parseOptions(r, cfg)
		if err != nil {
			respondError(w, err.Error(), faults.HTTPStatus(faults.Classify(err)))
			return
		}

		report, err := svc.AnalyzeArchive(zipBytes, opts)
		if err != nil {
			log.Error("Batch analysis failed: %v", err)
			respondError(w, "Internal error during batch analysis", faults.HTTPStatus(faults.Classify(err)))
			return
		}

		respondJSON(w, report, http.StatusOK)
	}
}

// readUpload extracts the multipart "file" part, enforcing the size cap
// and rejecting empty payloads.
func readUpload(r *http.Request, maxSize int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize+1)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return nil, "", faults.ErrPayloadTooLarge
		}
		return nil, "", fmt.Errorf("failed to parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file uploaded", faults.ErrEmptyPayload)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", faults.ErrEmptyPayload
	}
	if int64(len(data)) > maxSize {
		return nil, "", faults.ErrPayloadTooLarge
	}

	return data, header.Filename, nil
}

// parseOptions reads confidence and iou query parameters, both bounded
// to [0.0, 1.0], falling back to the configured defaults.
func parseOptions(r *http.Request, cfg *config.Config) (service.Options, error) {
	opts := service.Options{
		Confidence:    cfg.DefaultConfidence,
		IoU:           cfg.DefaultIoU,
		SaveAnnotated: true,
	}

	var err error
	if opts.Confidence, err = parseThreshold(r.URL.Query().Get("confidence"), opts.Confidence); err != nil {
		return opts, fmt.Errorf("%w: confidence", faults.ErrBadThreshold)
	}
	if opts.IoU, err = parseThreshold(r.URL.Query().Get("iou"), opts.IoU); err != nil {
		return opts, fmt.Errorf("%w: iou", faults.ErrBadThreshold)
	}
	if v := r.URL.Query().Get("save_annotated"); v != "" {
		saved, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: save_annotated", faults.ErrBadParameter)
		}
		opts.SaveAnnotated = saved
	}

	return opts, nil
}

func parseThreshold(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0.0 || value > 1.0 {
		return 0, fmt.Errorf("out of range")
	}
	return value, nil
}
