package app

import (
	"fmt"
	"net/http"

	"toolcheck/internal/config"
	"toolcheck/internal/detector"
	"toolcheck/internal/logger"
	"toolcheck/internal/progress"
	"toolcheck/internal/repository/sqlite"
	"toolcheck/internal/route"
	"toolcheck/internal/service"
	"toolcheck/internal/session"
	"toolcheck/internal/toolset"
)

// App wires the service components together.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	pool     *service.DetectorPool
	hub      *progress.Hub
	analyzer *service.Analyzer
	router   http.Handler
}

// New builds the full application from configuration.
func New() (*App, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	tools := toolset.Default()
	if cfg.ToolsetPath != "" {
		loaded, err := toolset.LoadFile(cfg.ToolsetPath)
		if err != nil {
			return nil, fmt.Errorf("load tool set: %w", err)
		}
		tools = loaded
	}
	log.Info("Expected tool set loaded: %d classes", tools.Size())

	sessions, err := session.NewManager(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("prepare output root: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	reports := sqlite.NewReportRepository(db)

	detectors := make([]service.Detector, 0, cfg.DetectorPoolSize)
	for i := 0; i < cfg.DetectorPoolSize; i++ {
		detectors = append(detectors, detector.NewService(cfg.ModelPath, cfg.ModelConfigPath, log))
	}
	pool := service.NewDetectorPool(detectors)

	hub := progress.NewHub(log)

	analyzer := service.NewAnalyzer(pool, sessions, tools, reports, hub, log, cfg.MaxBatchImages)

	router := route.SetupRoutes(analyzer, hub, reports, cfg, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		pool:     pool,
		hub:      hub,
		analyzer: analyzer,
		router:   router,
	}, nil
}

// Run starts the background hub and serves HTTP until failure.
func (a *App) Run() error {
	go a.hub.Run()

	fmt.Printf("🚀 Tool Recognition Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Results: %s\n", a.config.OutputDirectory)
	fmt.Printf("🤖 Model: %s\n", a.config.ModelPath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), a.router)
}

// Close releases the detector pool and database.
func (a *App) Close() {
	a.pool.Close()
	a.db.Close()
}
