package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/specialistvlad/linesim/internal/ctxlog"
	"github.com/specialistvlad/linesim/internal/httpapi"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/relay"
	"github.com/specialistvlad/linesim/internal/topologyfile"
	"golang.org/x/sync/errgroup"
)

// Run loads the initial topology, starts every configured surface and blocks
// until ctx is cancelled or one of them fails. The engine is shut down
// before Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.shutdownEngine()

	if err := a.loadTopology(ctx); err != nil {
		return err
	}

	// Everything that can fail to start is prepared before any goroutine runs.
	var watcher *topologyfile.Watcher
	if a.config.Watch {
		w, err := topologyfile.NewWatcher(a.config.TopologyPath)
		if err != nil {
			return fmt.Errorf("failed to watch topology file: %w", err)
		}
		w.OnChange = a.reload
		w.OnError = func(err error) {
			a.logger.Warn("Topology reload failed.", "error", err)
		}
		watcher = w
	}

	var rel *relay.Relay
	if a.config.RelayURL != "" {
		r, err := relay.Dial(ctx, relay.Config{URL: a.config.RelayURL, Namespace: a.config.RelayNamespace})
		if err != nil {
			if watcher != nil {
				watcher.Close()
			}
			return fmt.Errorf("failed to start relay: %w", err)
		}
		rel = r
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.config.HealthcheckPort > 0 {
		addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
		srv := &http.Server{Addr: addr, Handler: a.healthMux()}
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		g.Go(func() error { return a.serve(gctx, "healthcheck", srv, nil) })
	}

	if a.config.ListenAddr != "" {
		api := httpapi.New(a.engine, a.logger)
		srv := &http.Server{Addr: a.config.ListenAddr, Handler: api}
		a.logger.Info("🌐 API server starting", "address", a.config.ListenAddr)
		g.Go(func() error { return a.serve(gctx, "api", srv, api.Close) })
	}

	if watcher != nil {
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if rel != nil {
		g.Go(func() error { return rel.Forward(gctx, a.engine) })
	}

	if a.config.Autostart {
		if !a.engine.StartSimulation() {
			a.logger.Warn("Autostart requested but the line cannot start: it needs at least one buffer and one station.")
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

// loadTopology populates the board from the example line or the configured
// topology file.
func (a *App) loadTopology(ctx context.Context) error {
	switch {
	case a.config.Example:
		if !a.engine.LoadExample() {
			return errors.New("failed to load the example line")
		}
		a.logger.Info("Example line loaded.")
	case a.config.TopologyPath != "":
		cfg, err := topologyfile.Load(ctx, a.config.TopologyPath)
		if err != nil {
			return err
		}
		if !a.engine.ImportConfiguration(cfg) {
			return fmt.Errorf("topology file '%s' is not a valid line", a.config.TopologyPath)
		}
		a.logger.Info("Topology loaded.", "path", a.config.TopologyPath, "buffers", len(cfg.Buffers), "stations", len(cfg.Stations))
	}
	return nil
}

// reload replaces the board with cfg, resuming the simulation if it was
// running.
func (a *App) reload(cfg *model.Config) error {
	wasRunning := a.engine.IsRunning()
	if !a.engine.ImportConfiguration(cfg) {
		return fmt.Errorf("topology file '%s' is not a valid line", a.config.TopologyPath)
	}
	if wasRunning {
		a.engine.StartSimulation()
	}
	return nil
}

func (a *App) shutdownEngine() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.engine.Shutdown(ctx); err != nil {
		a.logger.Error("Engine shutdown failed", "error", err)
		return
	}
	a.logger.Info("🏁 Engine shut down.")
}
