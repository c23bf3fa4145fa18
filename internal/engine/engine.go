package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/linesim/internal/history"
	"github.com/specialistvlad/linesim/internal/inmemorystore"
	"github.com/specialistvlad/linesim/internal/inmemorytopology"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/specialistvlad/linesim/internal/topologystore"
	"github.com/specialistvlad/linesim/internal/workerpool"
)

// Engine is the single orchestrator of one line. Create it with New and
// release it with Shutdown.
type Engine struct {
	logger   *slog.Logger
	opts     options
	pool     *workerpool.Pool
	buffers  *inmemorystore.Store
	topo     topologystore.Store
	history  *history.History
	recorder Recorder
	observer station.Observer

	mu          sync.RWMutex
	entryID     string
	nextBuffer  int
	nextStation int
	rate        model.RateWindow
	running     bool
	closed      bool
	cancel      context.CancelFunc // live generation, capture and publish
	replay      context.CancelFunc // replay advance
	frame       *model.Snapshot    // snapshot currently shown by replay
	wg          sync.WaitGroup

	seq       atomic.Uint64
	generated atomic.Int64
	rejected  atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64

	lmu          sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// Stats are the aggregate unit counters since the last reset.
type Stats struct {
	Generated int64 `json:"generated"`
	Rejected  int64 `json:"rejected"`
	Dropped   int64 `json:"dropped"`
	Completed int64 `json:"completed"`
	Snapshots int   `json:"snapshots"`
	Listeners int   `json:"listeners"`
	Workers   int   `json:"workers"`
}

// New creates an empty, stopped engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		logger:    o.logger,
		opts:      o,
		pool:      workerpool.New(o.logger, o.workers),
		buffers:   inmemorystore.New(),
		topo:      inmemorytopology.New(),
		history:   history.New(o.historySize),
		recorder:  o.recorder,
		rate:      o.rate,
		listeners: make(map[int]Listener),
	}
	e.observer = counters{e}
	e.logger.Debug("Engine created.", "workers", e.pool.Limit(), "history", e.history.Capacity(), "policy", o.policy)
	return e
}

// Shutdown stops simulation and replay, then waits for background activities
// and in-flight station tasks to finish or for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopLocked()
	e.stopReplayLocked()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		e.pool.Close()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Debug("Engine shut down.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether live simulation is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// IsReplaying reports whether a replay is in progress.
func (e *Engine) IsReplaying() bool {
	return e.history.Active()
}

// EntryBufferID returns the ID of the buffer units are generated into.
func (e *Engine) EntryBufferID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entryID
}

// RateWindow returns the current generation window.
func (e *Engine) RateWindow() model.RateWindow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rate
}

// CurrentState returns the live view, or the replayed frame while replay is
// active.
func (e *Engine) CurrentState() *model.State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.frame != nil {
		return e.stateLocked(e.frame.Clone())
	}
	return e.stateLocked(e.snapshotLocked(e.seq.Load()))
}

// Stats returns the aggregate counters.
func (e *Engine) Stats() Stats {
	e.lmu.Lock()
	listeners := len(e.listeners)
	e.lmu.Unlock()
	return Stats{
		Generated: e.generated.Load(),
		Rejected:  e.rejected.Load(),
		Dropped:   e.dropped.Load(),
		Completed: e.completed.Load(),
		Snapshots: e.history.Len(),
		Listeners: listeners,
		Workers:   e.pool.Limit(),
	}
}

// History returns the snapshot at index i, oldest first.
func (e *Engine) History(i int) (*model.Snapshot, bool) {
	return e.history.Get(i)
}

func (e *Engine) stateLocked(s *model.Snapshot) *model.State {
	return &model.State{
		Snapshot:      *s,
		Running:       e.running,
		Replaying:     e.history.Active(),
		ReplayIndex:   e.history.Index(),
		HistoryLength: e.history.Len(),
	}
}

// snapshotLocked deep-copies every buffer, station and edge. The caller holds
// at least the read lock so the topology is not mid-mutation.
func (e *Engine) snapshotLocked(seq uint64) *model.Snapshot {
	s := &model.Snapshot{
		Sequence:      seq,
		Timestamp:     time.Now(),
		Edges:         e.topo.Edges(),
		EntryBufferID: e.entryID,
	}
	for _, b := range e.buffers.All() {
		s.Buffers = append(s.Buffers, b.View())
	}
	for _, st := range e.topo.Stations() {
		s.Stations = append(s.Stations, st.View())
	}
	return s
}

// capture records one snapshot into history.
func (e *Engine) capture(ctx context.Context) {
	e.mu.RLock()
	if ctx.Err() != nil {
		e.mu.RUnlock()
		return
	}
	s, n := e.recordLocked()
	e.mu.RUnlock()

	e.recorder.Captured(s, n)
}

// recordLocked adds a fresh snapshot to history and returns it with the new
// history length.
func (e *Engine) recordLocked() (*model.Snapshot, int) {
	s := e.snapshotLocked(e.seq.Add(1))
	e.history.Add(s)
	return s, e.history.Len()
}

func (e *Engine) resetCounters() {
	e.generated.Store(0)
	e.rejected.Store(0)
	e.dropped.Store(0)
	e.completed.Store(0)
}

// counters forwards station events to the recorder and keeps Stats current.
type counters struct{ e *Engine }

func (c counters) Completed(id string, service time.Duration) {
	c.e.completed.Add(1)
	c.e.recorder.Completed(id, service)
}

func (c counters) Dropped(id string, reason station.DropReason) {
	c.e.dropped.Add(1)
	c.e.recorder.Dropped(id, reason)
}

// every runs fn each period until ctx is cancelled.
func every(ctx context.Context, period time.Duration, fn func()) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

// goTracked runs fn on its own goroutine tracked by the engine's WaitGroup.
func (e *Engine) goTracked(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}
