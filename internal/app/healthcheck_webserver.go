package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownTimeout bounds graceful shutdown of each server and of the engine.
const shutdownTimeout = 5 * time.Second

// healthHandler reports liveness together with the simulation state.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK running=%t replaying=%t\n", a.engine.IsRunning(), a.engine.IsReplaying())
}

// healthMux serves /health and the Prometheus /metrics endpoint.
func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
// before, when set, runs ahead of the shutdown.
func (a *App) serve(ctx context.Context, name string, srv *http.Server, before func()) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server failed: %w", name, err)
	case <-ctx.Done():
	}

	if before != nil {
		before()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Debug("Shutting down server...", "server", name)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "server", name, "error", err)
		return err
	}
	a.logger.Debug("Server shut down gracefully.", "server", name)
	return nil
}
