package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/linesim/internal/app"
	"github.com/specialistvlad/linesim/internal/engine"
	"github.com/specialistvlad/linesim/internal/history"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/specialistvlad/linesim/internal/workerpool"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("linesim", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
linesim - A concurrent production-line simulator.

Usage:
  linesim [options] [TOPOLOGY_FILE]

Arguments:
  TOPOLOGY_FILE
    Path to an .hcl, .yaml or .json line topology. Without one the board
    starts empty, or with the example line when --example is set.

Options:
`)
		flagSet.PrintDefaults()
	}

	topologyFlag := flagSet.String("topology", "", "Path to the topology file.")
	exampleFlag := flagSet.Bool("example", false, "Start with the built-in example line.")
	watchFlag := flagSet.Bool("watch", false, "Reload the topology file when it changes.")
	autostartFlag := flagSet.Bool("autostart", false, "Start the simulation once the line is loaded.")
	listenFlag := flagSet.String("listen", ":8080", "Address of the HTTP API. Empty disables it.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", workerpool.DefaultLimit, "Maximum number of station tasks running at once.")
	snapshotFlag := flagSet.Duration("snapshot-interval", engine.DefaultSnapshotInterval, "How often a snapshot is recorded for replay.")
	publishFlag := flagSet.Duration("publish-interval", engine.DefaultPublishInterval, "How often state is published to listeners.")
	historyFlag := flagSet.Int("history-size", history.DefaultCapacity, "Number of snapshots kept for replay.")
	minRateFlag := flagSet.Duration("min-input-rate", model.DefaultRateWindow.Min, "Shortest interval between two generated units.")
	maxRateFlag := flagSet.Duration("max-input-rate", model.DefaultRateWindow.Max, "Longest interval between two generated units.")
	inFlightFlag := flagSet.String("in-flight", "discard", "What stopping a busy station does with its unit. Options: 'discard' or 'requeue'.")
	relayURLFlag := flagSet.String("relay-url", "", "socket.io server that receives every published state.")
	relayNSFlag := flagSet.String("relay-namespace", "/", "socket.io namespace for the relay.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *topologyFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Topology path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	policy, err := station.ParseInFlightPolicy(*inFlightFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: "invalid in-flight: " + err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		TopologyPath:     path,
		Example:          *exampleFlag,
		Watch:            *watchFlag,
		Autostart:        *autostartFlag,
		ListenAddr:       *listenFlag,
		HealthcheckPort:  *healthPortFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		WorkerCount:      *workersFlag,
		SnapshotInterval: *snapshotFlag,
		PublishInterval:  *publishFlag,
		HistorySize:      *historyFlag,
		MinInputRate:     *minRateFlag,
		MaxInputRate:     *maxRateFlag,
		InFlight:         policy,
		RelayURL:         *relayURLFlag,
		RelayNamespace:   *relayNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
