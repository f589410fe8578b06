package route

import (
	"net/http"

	"toolcheck/internal/config"
	"toolcheck/internal/handler"
	"toolcheck/internal/logger"
	"toolcheck/internal/middleware"
	"toolcheck/internal/progress"
	"toolcheck/internal/repository"
	"toolcheck/internal/service"
)

// SetupRoutes registers the API endpoints and wraps the mux with the
// CORS middleware.
func SetupRoutes(svc *service.Analyzer, hub *progress.Hub, reports repository.ReportRepository,
	cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Analysis endpoints
	mux.HandleFunc("/api/tools/analyze", handler.AnalyzeHandler(svc, cfg, log))
	mux.HandleFunc("/api/tools/analyze-batch", handler.AnalyzeBatchHandler(svc, cfg, log))

	// Artifacts and history
	mux.HandleFunc("/api/results/view", handler.ViewResultHandler(cfg))
	mux.HandleFunc("/api/history", handler.HistoryHandler(reports, log))

	// Batch progress stream
	mux.HandleFunc("/api/progress", handler.ProgressWebsocketHandler(hub, log))

	// Liveness
	mux.HandleFunc("/health", handler.HealthHandler())
	mux.HandleFunc("/", handler.RootHandler())

	return middleware.CORS(mux)
}
