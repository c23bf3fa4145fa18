package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/linesim/internal/station"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TopologyPath string // hcl, yaml or json file
	Example      bool   // start from the built-in example line
	Watch        bool   // reload TopologyPath when it changes
	Autostart    bool

	ListenAddr      string // HTTP API; empty disables it
	HealthcheckPort int    // /health and /metrics; 0 disables it
	LogFormat       string
	LogLevel        string

	WorkerCount      int
	SnapshotInterval time.Duration
	PublishInterval  time.Duration
	HistorySize      int
	MinInputRate     time.Duration
	MaxInputRate     time.Duration
	InFlight         station.InFlightPolicy

	RelayURL       string
	RelayNamespace string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.Example && cfg.TopologyPath != "" {
		errs = append(errs, errors.New("example and topology file are mutually exclusive"))
	}
	if cfg.Watch && cfg.TopologyPath == "" {
		errs = append(errs, errors.New("watch requires a topology file"))
	}
	if cfg.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount))
	}
	if cfg.SnapshotInterval <= 0 || cfg.PublishInterval <= 0 {
		errs = append(errs, errors.New("snapshot and publish intervals must be positive"))
	}
	if cfg.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history size must be at least 1, got %d", cfg.HistorySize))
	}
	if cfg.MinInputRate <= 0 || cfg.MaxInputRate < cfg.MinInputRate {
		errs = append(errs, fmt.Errorf("invalid input rate window [%s, %s]", cfg.MinInputRate, cfg.MaxInputRate))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort))
	}
	if cfg.RelayNamespace != "" && !strings.HasPrefix(cfg.RelayNamespace, "/") {
		errs = append(errs, fmt.Errorf("relay namespace %q must start with '/'", cfg.RelayNamespace))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
