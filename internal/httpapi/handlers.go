package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/specialistvlad/linesim/internal/topologyfile"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CurrentState())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		jsonError(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	snap, ok := s.engine.History(i)
	if !ok {
		jsonError(w, "no snapshot at index "+strconv.Itoa(i), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleStream sends the current state, then every published state, until
// the client goes away or the server closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.broker.subscribe()
	defer s.broker.unsubscribe(ch)
	s.logger.Debug("Stream client connected.", "remote", r.RemoteAddr)

	if err := writeEvent(w, event{Name: "init", Data: s.engine.CurrentState()}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("Stream client disconnected.", "remote", r.RemoteAddr)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.StartSimulation())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.StopSimulation())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.ResetSimulation()
	writeResult(w, true)
}

func (s *Server) handleReplayStart(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.StartReplay())
}

func (s *Server) handleReplayStop(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.StopReplay())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearBoard()
	writeResult(w, true)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.LoadExample())
}

type bufferRequest struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Capacity int     `json:"capacity"`
}

func (s *Server) handleCreateBuffer(w http.ResponseWriter, r *http.Request) {
	var req bufferRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.engine.CreateBuffer(req.Name, req.X, req.Y, req.Capacity)
	writeID(w, id, ok)
}

type bufferUpdate struct {
	Name     string `json:"name"`
	Capacity *int   `json:"capacity"`
}

func (s *Server) handleUpdateBuffer(w http.ResponseWriter, r *http.Request) {
	var req bufferUpdate
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	ok := s.engine.UpdateBuffer(id, req.Name)
	if ok && req.Capacity != nil {
		ok = s.engine.SetBufferCapacity(id, *req.Capacity)
	}
	writeResult(w, ok)
}

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleMoveBuffer(w http.ResponseWriter, r *http.Request) {
	var req position
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.MoveBuffer(r.PathValue("id"), req.X, req.Y))
}

func (s *Server) handleDeleteBuffer(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.DeleteBuffer(r.PathValue("id")))
}

// stationRequest carries service bounds in milliseconds.
type stationRequest struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	MinService int     `json:"minService"`
	MaxService int     `json:"maxService"`
}

func (s *Server) handleCreateStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.engine.CreateStation(req.Name, req.X, req.Y, req.MinService, req.MaxService)
	writeID(w, id, ok)
}

type stationUpdate struct {
	Name       string `json:"name"`
	MinService int    `json:"minService"`
	MaxService int    `json:"maxService"`
}

func (s *Server) handleUpdateStation(w http.ResponseWriter, r *http.Request) {
	var req stationUpdate
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.UpdateStation(r.PathValue("id"), req.Name, req.MinService, req.MaxService))
}

func (s *Server) handleMoveStation(w http.ResponseWriter, r *http.Request) {
	var req position
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.MoveStation(r.PathValue("id"), req.X, req.Y))
}

func (s *Server) handleDeleteStation(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.engine.DeleteStation(r.PathValue("id")))
}

type edgeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.Connect(req.From, req.To, req.Type))
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		jsonError(w, "from and to are required", http.StatusBadRequest)
		return
	}
	writeResult(w, s.engine.Disconnect(from, to))
}

func (s *Server) handleSetEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BufferID string `json:"bufferId"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.SetEntryBuffer(req.BufferID))
}

func (s *Server) handleSetGeneration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, s.engine.SetGenerationRate(req.Min, req.Max))
}

var contentTypes = map[topologyfile.Format]string{
	topologyfile.FormatJSON: "application/json",
	topologyfile.FormatYAML: "application/yaml",
	topologyfile.FormatHCL:  "application/hcl",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := topologyfile.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := topologyfile.Encode(s.engine.ExportConfiguration(), f)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	w.Write(out)
}

// handleImport reads a topology document in the format named by the
// Content-Type header. A document that fails validation leaves the board
// cleared.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := topologyfile.ParseFormat(r.Header.Get("Content-Type"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := topologyfile.Decode(src, "request", f)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok := s.engine.ImportConfiguration(cfg)
	if !ok {
		s.logger.Warn("Rejected imported topology.", "format", f)
	}
	writeResult(w, ok)
}
