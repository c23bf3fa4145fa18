package engine

import (
	"fmt"
	"time"

	"github.com/specialistvlad/linesim/internal/buffer"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
)

// mutate runs fn under the write lock and publishes on success.
func (e *Engine) mutate(op string, fn func() error) bool {
	e.mu.Lock()
	err := fn()
	e.mu.Unlock()

	if err != nil {
		e.logger.Debug("Topology change rejected.", "op", op, "error", err)
		return false
	}
	e.publish()
	return true
}

// CreateBuffer adds a buffer and returns its ID. A capacity of 0 means
// unbounded. The first buffer on an empty board becomes the entry buffer.
func (e *Engine) CreateBuffer(name string, x, y float64, capacity int) (string, bool) {
	var id string
	ok := e.mutate("create_buffer", func() error {
		var err error
		id, err = e.createBufferLocked(name, model.Position{X: x, Y: y}, capacity)
		return err
	})
	return id, ok
}

// DeleteBuffer removes a buffer, its units and every edge touching it. When
// the entry buffer goes away the lowest remaining buffer takes its place.
func (e *Engine) DeleteBuffer(id string) bool {
	return e.mutate("delete_buffer", func() error { return e.deleteBufferLocked(id) })
}

// CreateStation adds a station with the given service-time bounds and
// returns its ID. A station created during live simulation starts at once.
func (e *Engine) CreateStation(name string, x, y float64, minService, maxService int) (string, bool) {
	var id string
	ok := e.mutate("create_station", func() error {
		var err error
		id, err = e.createStationLocked(name, model.Position{X: x, Y: y}, millisRange(minService, maxService))
		return err
	})
	return id, ok
}

// DeleteStation stops a station and removes it with every edge touching it.
func (e *Engine) DeleteStation(id string) bool {
	return e.mutate("delete_station", func() error { return e.deleteStationLocked(id) })
}

// Connect adds a typed edge. A buffer-to-station edge replaces the station's
// previous input edge; a station-to-buffer edge replaces its previous output
// edge.
func (e *Engine) Connect(from, to, edgeType string) bool {
	return e.mutate("connect", func() error {
		t, err := model.ParseEdgeType(edgeType)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEdge, err)
		}
		return e.connectLocked(from, to, t)
	})
}

// Disconnect removes the edge from → to.
func (e *Engine) Disconnect(from, to string) bool {
	return e.mutate("disconnect", func() error {
		edge, ok := e.topo.RemoveEdge(from, to)
		if !ok {
			return fmt.Errorf("%w: no edge %s -> %s", ErrInvalidEdge, from, to)
		}
		e.unbindLocked(edge)
		return nil
	})
}

// MoveBuffer repositions a buffer.
func (e *Engine) MoveBuffer(id string, x, y float64) bool {
	return e.mutate("move_buffer", func() error {
		b, ok := e.buffers.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
		}
		b.SetPosition(model.Position{X: x, Y: y})
		return nil
	})
}

// MoveStation repositions a station.
func (e *Engine) MoveStation(id string, x, y float64) bool {
	return e.mutate("move_station", func() error {
		st, ok := e.topo.Station(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStation, id)
		}
		st.SetPosition(model.Position{X: x, Y: y})
		return nil
	})
}

// SetEntryBuffer designates the buffer units are generated into.
func (e *Engine) SetEntryBuffer(id string) bool {
	return e.mutate("set_entry", func() error {
		if _, ok := e.buffers.Get(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
		}
		e.entryID = id
		return nil
	})
}

// UpdateStation renames a station and replaces its service-time range. An
// empty name keeps the current one.
func (e *Engine) UpdateStation(id, name string, minService, maxService int) bool {
	return e.mutate("update_station", func() error {
		st, ok := e.topo.Station(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStation, id)
		}
		if err := st.SetService(millisRange(minService, maxService)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		if name != "" {
			st.SetName(name)
		}
		return nil
	})
}

// UpdateBuffer renames a buffer. An empty name keeps the current one.
func (e *Engine) UpdateBuffer(id, name string) bool {
	return e.mutate("update_buffer", func() error {
		b, ok := e.buffers.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
		}
		if name != "" {
			b.SetName(name)
		}
		return nil
	})
}

// SetBufferCapacity changes a buffer's bound. 0 means unbounded.
func (e *Engine) SetBufferCapacity(id string, capacity int) bool {
	return e.mutate("set_capacity", func() error {
		if capacity < 0 {
			return fmt.Errorf("%w: negative capacity %d", ErrInvalidConfig, capacity)
		}
		b, ok := e.buffers.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
		}
		b.SetCapacity(capacity)
		return nil
	})
}

// SetGenerationRate sets the window, in milliseconds, between two generated
// units. The running generator picks it up on its next draw.
func (e *Engine) SetGenerationRate(minMillis, maxMillis int) bool {
	return e.mutate("set_rate", func() error {
		w := model.RateWindow{
			Min: millis(minMillis),
			Max: millis(maxMillis),
		}
		if err := validRate(w); err != nil {
			return err
		}
		e.rate = w
		return nil
	})
}

func (e *Engine) createBufferLocked(name string, pos model.Position, capacity int) (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	if capacity < 0 {
		return "", fmt.Errorf("%w: negative capacity %d", ErrInvalidConfig, capacity)
	}
	id := fmt.Sprintf("Q%d", e.nextBuffer)
	e.nextBuffer++
	e.buffers.Put(buffer.New(id, name, pos, capacity))
	if e.entryID == "" {
		e.entryID = id
	}
	return id, nil
}

func (e *Engine) deleteBufferLocked(id string) error {
	if _, ok := e.buffers.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBuffer, id)
	}
	for _, edge := range e.topo.EdgesTouching(id) {
		e.topo.RemoveEdge(edge.From, edge.To)
		e.unbindLocked(edge)
	}
	b, _ := e.buffers.Delete(id)
	if n := b.Drain(); n > 0 {
		e.logger.Debug("Dropped units held by deleted buffer.", "buffer", id, "count", n)
	}
	if e.entryID == id {
		e.entryID = ""
		if rest := e.buffers.All(); len(rest) > 0 {
			e.entryID = rest[0].ID()
		}
	}
	return nil
}

func (e *Engine) createStationLocked(name string, pos model.Position, service model.ServiceRange) (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	if err := service.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	id := fmt.Sprintf("M%d", e.nextStation)
	e.nextStation++
	st := station.New(id, e.buffers, e.pool, station.Options{
		Name:     name,
		Position: pos,
		Service:  service,
		Flash:    e.opts.flash,
		Policy:   e.opts.policy,
		Logger:   e.logger,
		Observer: e.observer,
	})
	e.topo.AddStation(st)
	if e.running {
		st.Start()
	}
	return id, nil
}

func (e *Engine) deleteStationLocked(id string) error {
	st, ok := e.topo.Station(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	st.Stop()
	for _, edge := range e.topo.EdgesTouching(id) {
		e.topo.RemoveEdge(edge.From, edge.To)
		e.unbindLocked(edge)
	}
	e.topo.RemoveStation(id)
	return nil
}

func (e *Engine) connectLocked(from, to string, t model.EdgeType) error {
	edge := model.Edge{From: from, To: to, Type: t}
	b, ok := e.buffers.Get(edge.BufferID())
	if !ok {
		return fmt.Errorf("%w: %w: %s", ErrInvalidEdge, ErrUnknownBuffer, edge.BufferID())
	}
	st, ok := e.topo.Station(edge.StationID())
	if !ok {
		return fmt.Errorf("%w: %w: %s", ErrInvalidEdge, ErrUnknownStation, edge.StationID())
	}

	// A station binds at most one input and one output.
	for _, old := range e.topo.EdgesTouching(st.ID()) {
		if old.Type == t {
			e.topo.RemoveEdge(old.From, old.To)
			e.unbindLocked(old)
		}
	}

	e.topo.AddEdge(edge)
	if t == model.BufferToStation {
		b.AddConsumer(st.ID())
		st.BindInput(b.ID())
	} else {
		b.AddProducer(st.ID())
		st.BindOutput(b.ID())
	}
	return nil
}

// unbindLocked clears the bindings an already removed edge implied.
func (e *Engine) unbindLocked(edge model.Edge) {
	bufID, stID := edge.BufferID(), edge.StationID()
	b, bok := e.buffers.Get(bufID)
	st, sok := e.topo.Station(stID)

	if edge.Type == model.BufferToStation {
		if sok && st.Input() == bufID {
			st.BindInput("")
		}
		if bok {
			b.RemoveConsumer(stID)
		}
		return
	}
	if sok && st.Output() == bufID {
		st.BindOutput("")
	}
	if bok {
		b.RemoveProducer(stID)
	}
}

func validRate(w model.RateWindow) error {
	if w.Min <= 0 || w.Max <= 0 || w.Max < w.Min {
		return fmt.Errorf("%w: generation window [%s, %s]", ErrInvalidRange, w.Min, w.Max)
	}
	return nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func millisRange(minMillis, maxMillis int) model.ServiceRange {
	return model.ServiceRange{Min: millis(minMillis), Max: millis(maxMillis)}
}
