package engine

import (
	"context"
	"time"

	"github.com/specialistvlad/linesim/internal/model"
)

// StartSimulation starts every station, the generator, snapshot capture and
// live publication. The first snapshot is recorded before it returns. It does nothing and returns false if the simulation is
// already running or the board lacks buffers or stations. An active replay
// is ended first.
func (e *Engine) StartSimulation() bool {
	e.mu.Lock()
	if e.closed || e.running {
		e.mu.Unlock()
		return false
	}
	stations := e.topo.Stations()
	if e.buffers.Len() == 0 || len(stations) == 0 {
		e.mu.Unlock()
		e.logger.Debug("Nothing to simulate.", "buffers", e.buffers.Len(), "stations", len(stations))
		return false
	}

	e.stopReplayLocked()
	e.history.Clear()
	e.running = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	for _, st := range stations {
		st.Start()
	}
	first, n := e.recordLocked()
	e.goTracked(func() { e.generate(ctx) })
	e.goTracked(func() { every(ctx, e.opts.snapshotInterval, func() { e.capture(ctx) }) })
	e.goTracked(func() { every(ctx, e.opts.publishInterval, e.publish) })
	e.mu.Unlock()

	e.recorder.Captured(first, n)
	e.logger.Info("🚀 Simulation started.", "buffers", e.buffers.Len(), "stations", len(stations))
	e.publish()
	return true
}

// StopSimulation stops every station and the background activities. It
// returns false, changing nothing, when the simulation is not running.
func (e *Engine) StopSimulation() bool {
	e.mu.Lock()
	stopped := e.stopLocked()
	e.mu.Unlock()

	if !stopped {
		return false
	}
	e.logger.Info("🏁 Simulation stopped.", "generated", e.generated.Load(), "completed", e.completed.Load())
	e.publish()
	return true
}

// ResetSimulation stops the simulation, empties every buffer, resets every
// station and clears history and counters. Topology and edges are kept.
func (e *Engine) ResetSimulation() {
	e.mutate("reset", func() error {
		e.stopLocked()
		e.stopReplayLocked()
		for _, b := range e.buffers.All() {
			b.Drain()
		}
		for _, st := range e.topo.Stations() {
			st.Reset()
		}
		e.history.Clear()
		e.resetCounters()
		return nil
	})
}

// ClearBoard stops everything and discards all buffers, stations, edges and
// history. ID counters and the entry buffer are reset.
func (e *Engine) ClearBoard() {
	e.mutate("clear", func() error {
		e.clearLocked()
		return nil
	})
}

func (e *Engine) clearLocked() {
	e.stopLocked()
	e.stopReplayLocked()
	for _, b := range e.buffers.All() {
		b.Drain()
	}
	e.buffers.Clear()
	e.topo.Clear()
	e.history.Clear()
	e.resetCounters()
	e.entryID = ""
	e.nextBuffer, e.nextStation = 0, 0
}

// stopLocked reports whether a running simulation was stopped.
func (e *Engine) stopLocked() bool {
	if !e.running {
		return false
	}
	e.running = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	for _, st := range e.topo.Stations() {
		st.Stop()
	}
	return true
}

// generate pushes a new unit into the entry buffer after every randomly
// drawn interval until ctx is cancelled.
func (e *Engine) generate(ctx context.Context) {
	for {
		e.mu.RLock()
		w := e.rate
		e.mu.RUnlock()

		t := time.NewTimer(model.UniformDuration(w.Min, w.Max))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		e.generateOne(ctx)
	}
}

func (e *Engine) generateOne(ctx context.Context) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if ctx.Err() != nil || e.entryID == "" {
		return
	}
	b, ok := e.buffers.Get(e.entryID)
	if !ok {
		return
	}

	u := model.NewUnit(b.ID())
	if !b.Push(u) {
		e.rejected.Add(1)
		e.recorder.Rejected(b.ID())
		return
	}
	e.generated.Add(1)
	e.recorder.Generated(b.ID())
}
