package engine

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/linesim/internal/model"
)

// ExportConfiguration returns the structure of the board: buffers, stations,
// edges, entry buffer and generation window. Units are never included.
func (e *Engine) ExportConfiguration() *model.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rate := e.rate
	cfg := &model.Config{
		Edges:         e.topo.Edges(),
		EntryBufferID: e.entryID,
		Generation:    &rate,
	}
	for _, b := range e.buffers.All() {
		cfg.Buffers = append(cfg.Buffers, b.Config())
	}
	for _, st := range e.topo.Stations() {
		cfg.Stations = append(cfg.Stations, st.Config())
	}
	return cfg
}

// ImportConfiguration clears the board and rebuilds it from cfg under fresh
// IDs. The whole document is validated before anything is created; if it is
// invalid the board is left cleared and false is returned.
func (e *Engine) ImportConfiguration(cfg *model.Config) bool {
	return e.mutate("import", func() error {
		e.clearLocked()
		if e.closed {
			return ErrClosed
		}
		edges, err := validateConfig(cfg)
		if err != nil {
			e.logger.Warn("Rejected topology import.", "error", err)
			return err
		}
		return e.buildLocked(cfg, edges)
	})
}

// buildLocked creates the entities of an already validated cfg on an empty
// board.
func (e *Engine) buildLocked(cfg *model.Config, edges []model.Edge) error {
	ids := make(map[string]string, len(cfg.Buffers)+len(cfg.Stations))
	for _, b := range cfg.Buffers {
		id, err := e.createBufferLocked(b.Name, b.Position, b.Capacity)
		if err != nil {
			return err
		}
		ids[b.ID] = id
	}
	for _, s := range cfg.Stations {
		id, err := e.createStationLocked(s.Name, s.Position, s.Service)
		if err != nil {
			return err
		}
		ids[s.ID] = id
	}
	for _, edge := range edges {
		if err := e.connectLocked(ids[edge.From], ids[edge.To], edge.Type); err != nil {
			return err
		}
	}
	if cfg.EntryBufferID != "" {
		e.entryID = ids[cfg.EntryBufferID]
	}
	if cfg.Generation != nil {
		e.rate = *cfg.Generation
	}
	e.logger.Debug("Topology built.", "buffers", len(cfg.Buffers), "stations", len(cfg.Stations), "edges", len(edges))
	return nil
}

// validateConfig checks every reference and range in cfg and returns the
// edges with their types normalized.
func validateConfig(cfg *model.Config) ([]model.Edge, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
	}

	var errs []error
	kinds := make(map[string]string)
	claim := func(id, kind string) {
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("%s with empty id", kind))
		case kinds[id] != "":
			errs = append(errs, fmt.Errorf("duplicate id %q", id))
		default:
			kinds[id] = kind
		}
	}

	for _, b := range cfg.Buffers {
		claim(b.ID, "buffer")
		if b.Capacity < 0 {
			errs = append(errs, fmt.Errorf("buffer %q: negative capacity %d", b.ID, b.Capacity))
		}
	}
	for _, s := range cfg.Stations {
		claim(s.ID, "station")
		if err := s.Service.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("station %q: %w", s.ID, err))
		}
	}

	edges := make([]model.Edge, 0, len(cfg.Edges))
	inputs, outputs := make(map[string]bool), make(map[string]bool)
	for _, edge := range cfg.Edges {
		t, err := model.ParseEdgeType(string(edge.Type))
		if err != nil {
			errs = append(errs, fmt.Errorf("edge %s -> %s: %w", edge.From, edge.To, err))
			continue
		}
		edge.Type = t
		if kinds[edge.BufferID()] != "buffer" || kinds[edge.StationID()] != "station" {
			errs = append(errs, fmt.Errorf("edge %s -> %s (%s) does not join a known buffer and station", edge.From, edge.To, t))
			continue
		}
		seen := inputs
		if t == model.StationToBuffer {
			seen = outputs
		}
		if seen[edge.StationID()] {
			errs = append(errs, fmt.Errorf("station %q has more than one %s edge", edge.StationID(), t))
			continue
		}
		seen[edge.StationID()] = true
		edges = append(edges, edge)
	}

	if cfg.EntryBufferID != "" && kinds[cfg.EntryBufferID] != "buffer" {
		errs = append(errs, fmt.Errorf("entry buffer %q is not a known buffer", cfg.EntryBufferID))
	}
	if cfg.Generation != nil {
		if err := validRate(*cfg.Generation); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return edges, nil
}
