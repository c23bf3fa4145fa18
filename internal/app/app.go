package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/linesim/internal/engine"
	"github.com/specialistvlad/linesim/internal/metrics"
	"github.com/specialistvlad/linesim/internal/model"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	engine  *engine.Engine
	metrics *metrics.Recorder
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger, metrics registry and engine.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	rec := metrics.New()
	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithWorkers(cfg.WorkerCount),
		engine.WithSnapshotInterval(cfg.SnapshotInterval),
		engine.WithPublishInterval(cfg.PublishInterval),
		engine.WithHistorySize(cfg.HistorySize),
		engine.WithInFlightPolicy(cfg.InFlight),
		engine.WithRateWindow(model.RateWindow{Min: cfg.MinInputRate, Max: cfg.MaxInputRate}),
		engine.WithRecorder(rec),
	)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		engine:  eng,
		metrics: rec,
	}
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
