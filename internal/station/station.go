// Package station implements the processing node of a line. A Station pulls
// one unit at a time from its input buffer, holds it for a randomly drawn
// service time, hands it to its output buffer and then announces itself ready
// again.
//
// A Station never holds its own mutex while calling into a buffer it looked
// up through the flow.Directory. The only path where both locks are held is a
// buffer calling OnWorkAvailable or IsReady, so the order is always buffer
// first, station second.
package station

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/specialistvlad/linesim/internal/flow"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/workerpool"
)

var _ flow.Notifiable = (*Station)(nil)

// DefaultFlash is how long a station keeps showing a finished unit before
// becoming ready again.
const DefaultFlash = 300 * time.Millisecond

// Submitter schedules a background task. *workerpool.Pool satisfies it.
type Submitter interface {
	Submit(task workerpool.Task) bool
}

// Options configures a new Station. Zero values pick the defaults.
type Options struct {
	Name     string
	Position model.Position
	Service  model.ServiceRange
	Flash    time.Duration
	Policy   InFlightPolicy
	Logger   *slog.Logger
	Observer Observer
}

// Station is one processing node.
type Station struct {
	id       string
	dir      flow.Directory
	pool     Submitter
	logger   *slog.Logger
	observer Observer
	flash    time.Duration
	policy   InFlightPolicy

	mu         sync.Mutex
	name       string
	pos        model.Position
	service    model.ServiceRange
	inputID    string
	outputID   string
	running    bool
	ready      bool
	processing bool
	flashing   bool
	color      string
	unit       *model.Unit
	unitSource string
	completed  int
	busy       time.Duration

	// cycle identifies the current processing attempt. Stop and Reset bump it
	// so a late timer from an abandoned cycle finds a mismatch and does
	// nothing.
	cycle  uint64
	cancel context.CancelFunc
}

// New creates an idle, stopped station.
func New(id string, dir flow.Directory, pool Submitter, opts Options) *Station {
	if opts.Name == "" {
		opts.Name = id
	}
	if opts.Service.Validate() != nil {
		opts.Service = model.DefaultServiceRange
	}
	if opts.Flash <= 0 {
		opts.Flash = DefaultFlash
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	return &Station{
		id:       id,
		dir:      dir,
		pool:     pool,
		logger:   opts.Logger.With("station", id),
		observer: opts.Observer,
		flash:    opts.Flash,
		policy:   opts.Policy,
		name:     opts.Name,
		pos:      opts.Position,
		service:  opts.Service,
		ready:    true,
		color:    model.IdleColor,
	}
}

// ID returns the station's identity.
func (s *Station) ID() string {
	return s.id
}

// IsReady reports whether the station would accept work right now.
func (s *Station) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.ready && !s.processing
}

// Start marks the station running and registers it with its input buffer.
// Starting a running station is a no-op.
func (s *Station) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ready = !s.processing
	input := s.inputID
	s.mu.Unlock()

	s.logger.Debug("Station started.")
	s.announce(input)
}

// Stop cancels any pending service, deregisters from the input buffer and
// settles a held unit according to the in-flight policy.
func (s *Station) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	held, from := s.abandonLocked()
	input := s.inputID
	s.mu.Unlock()

	s.withdraw(input)
	if held != nil {
		s.settle(held, from)
	}
	s.logger.Debug("Station stopped.")
}

// Reset clears counters and any displayed unit. It only succeeds on a
// stopped station.
func (s *Station) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.abandonLocked()
	s.completed = 0
	s.busy = 0
	return true
}

// OnWorkAvailable is called by a buffer, with the buffer's lock held, when it
// has a unit for this station. The station takes the unit only if it is
// running, idle and src is its current input.
func (s *Station) OnWorkAvailable(src flow.WorkSource) {
	s.mu.Lock()
	if !s.running || !s.ready || s.processing || src.ID() != s.inputID {
		s.mu.Unlock()
		return
	}
	u, ok := src.Pop()
	if !ok {
		s.mu.Unlock()
		src.RegisterReady(s)
		return
	}
	s.beginLocked(u, src.ID())
	s.mu.Unlock()
}

// beginLocked moves the station into processing and schedules completion.
func (s *Station) beginLocked(u *model.Unit, from string) {
	s.ready = false
	s.processing = true
	s.unit = u
	s.unitSource = from
	s.color = u.Color
	u.Location = s.id

	s.cycle++
	cycle := s.cycle
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	service := s.service.Draw()

	ok := s.pool.Submit(func(poolCtx context.Context) {
		s.serve(ctx, poolCtx, cycle, service)
	})
	if !ok {
		s.logger.Warn("Worker pool refused task, dropping unit.", "unit", u.ID)
		s.abandonLocked()
	}
}

// serve waits out the service time, delivers the unit, then holds the flash.
func (s *Station) serve(ctx, poolCtx context.Context, cycle uint64, service time.Duration) {
	if !sleep(ctx, poolCtx, service) {
		return
	}

	s.mu.Lock()
	if !s.running || s.cycle != cycle || !s.processing {
		s.mu.Unlock()
		return
	}
	s.flashing = true
	s.completed++
	s.busy += service
	out := s.unit.Clone()
	outputID := s.outputID
	s.mu.Unlock()

	s.deliver(out, outputID)
	s.observer.Completed(s.id, service)

	if !sleep(ctx, poolCtx, s.flash) {
		return
	}

	s.mu.Lock()
	if s.cycle != cycle {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	running := s.running
	input := s.inputID
	s.mu.Unlock()

	if running {
		s.announce(input)
	}
}

func (s *Station) deliver(u *model.Unit, outputID string) {
	if outputID == "" {
		s.observer.Dropped(s.id, DropNoOutput)
		return
	}
	sink, ok := s.dir.Sink(outputID)
	if !ok {
		s.observer.Dropped(s.id, DropNoOutput)
		return
	}
	if !sink.Push(u) {
		s.logger.Debug("Output buffer full, unit dropped.", "unit", u.ID, "output", outputID)
		s.observer.Dropped(s.id, DropOutputFull)
	}
}

// settle applies the in-flight policy to a unit taken away from a stopped
// station.
func (s *Station) settle(u *model.Unit, from string) {
	if s.policy == Requeue && from != "" {
		if sink, ok := s.dir.Sink(from); ok && sink.Push(u) {
			s.logger.Debug("Requeued in-flight unit.", "unit", u.ID, "buffer", from)
			return
		}
	}
	s.observer.Dropped(s.id, DropStopped)
}

// abandonLocked invalidates the current cycle and returns the held unit if it
// had not been delivered yet.
func (s *Station) abandonLocked() (*model.Unit, string) {
	s.cycle++
	var held *model.Unit
	var from string
	if s.processing && !s.flashing {
		held, from = s.unit, s.unitSource
	}
	s.clearLocked()
	return held, from
}

func (s *Station) clearLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = false
	s.flashing = false
	s.ready = true
	s.unit = nil
	s.unitSource = ""
	s.color = model.IdleColor
}

// announce registers the station as ready with buffer id.
func (s *Station) announce(id string) {
	if id == "" {
		return
	}
	if src, ok := s.dir.Source(id); ok {
		src.RegisterReady(s)
	}
}

// withdraw removes any ready registration the station holds on buffer id.
func (s *Station) withdraw(id string) {
	if id == "" {
		return
	}
	if src, ok := s.dir.Source(id); ok {
		src.RemoveReady(s.id)
	}
}

// sleep waits for d and reports whether neither context was cancelled first.
func sleep(ctx, poolCtx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-poolCtx.Done():
		return false
	}
}
