// Package httpapi exposes an engine over HTTP: JSON endpoints for every query
// and mutation, topology import and export, and a Server-Sent Events stream
// of published states.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/linesim/internal/engine"
)

// maxBody bounds request documents.
const maxBody = 4 << 20

// Server handles API requests for one engine.
type Server struct {
	engine   *engine.Engine
	logger   *slog.Logger
	mux      *http.ServeMux
	broker   *broker
	listener int
}

// New creates a Server and subscribes it to e's published states. Call Close
// to unsubscribe.
func New(e *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine: e,
		logger: logger.With("component", "httpapi"),
		mux:    http.NewServeMux(),
		broker: newBroker(),
	}
	s.listener = e.Subscribe(s.broker.publish)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)
	s.mux.HandleFunc("GET /api/history/{index}", s.handleHistory)

	s.mux.HandleFunc("POST /api/simulation/start", s.handleStart)
	s.mux.HandleFunc("POST /api/simulation/stop", s.handleStop)
	s.mux.HandleFunc("POST /api/simulation/reset", s.handleReset)
	s.mux.HandleFunc("POST /api/replay/start", s.handleReplayStart)
	s.mux.HandleFunc("POST /api/replay/stop", s.handleReplayStop)
	s.mux.HandleFunc("POST /api/board/clear", s.handleClear)
	s.mux.HandleFunc("POST /api/example", s.handleExample)

	s.mux.HandleFunc("POST /api/buffers", s.handleCreateBuffer)
	s.mux.HandleFunc("PATCH /api/buffers/{id}", s.handleUpdateBuffer)
	s.mux.HandleFunc("PUT /api/buffers/{id}/position", s.handleMoveBuffer)
	s.mux.HandleFunc("DELETE /api/buffers/{id}", s.handleDeleteBuffer)

	s.mux.HandleFunc("POST /api/stations", s.handleCreateStation)
	s.mux.HandleFunc("PATCH /api/stations/{id}", s.handleUpdateStation)
	s.mux.HandleFunc("PUT /api/stations/{id}/position", s.handleMoveStation)
	s.mux.HandleFunc("DELETE /api/stations/{id}", s.handleDeleteStation)

	s.mux.HandleFunc("POST /api/edges", s.handleConnect)
	s.mux.HandleFunc("DELETE /api/edges", s.handleDisconnect)
	s.mux.HandleFunc("PUT /api/entry", s.handleSetEntry)
	s.mux.HandleFunc("PUT /api/generation", s.handleSetGeneration)

	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Close unsubscribes from the engine and ends open streams.
func (s *Server) Close() {
	s.engine.Unsubscribe(s.listener)
	s.broker.close()
}

type result struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeResult maps an engine status value to a response. Refused operations
// are 409: the request was well-formed but the line's state did not allow it.
func writeResult(w http.ResponseWriter, ok bool) {
	writeID(w, "", ok)
}

func writeID(w http.ResponseWriter, id string, ok bool) {
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	writeJSON(w, status, result{OK: ok, ID: id})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
