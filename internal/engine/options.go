package engine

import (
	"log/slog"
	"time"

	"github.com/specialistvlad/linesim/internal/history"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/specialistvlad/linesim/internal/workerpool"
)

const (
	DefaultSnapshotInterval = 200 * time.Millisecond
	DefaultPublishInterval  = 100 * time.Millisecond
	DefaultReplayInterval   = 200 * time.Millisecond
)

type options struct {
	logger           *slog.Logger
	workers          int
	snapshotInterval time.Duration
	publishInterval  time.Duration
	replayInterval   time.Duration
	historySize      int
	policy           station.InFlightPolicy
	rate             model.RateWindow
	flash            time.Duration
	recorder         Recorder
}

func defaultOptions() options {
	return options{
		logger:           slog.Default(),
		workers:          workerpool.DefaultLimit,
		snapshotInterval: DefaultSnapshotInterval,
		publishInterval:  DefaultPublishInterval,
		replayInterval:   DefaultReplayInterval,
		historySize:      history.DefaultCapacity,
		policy:           station.Discard,
		rate:             model.DefaultRateWindow,
		flash:            station.DefaultFlash,
		recorder:         noopRecorder{},
	}
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used by the engine and its stations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers bounds how many station service tasks run at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSnapshotInterval sets the period of snapshot capture.
func WithSnapshotInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.snapshotInterval = d
		}
	}
}

// WithPublishInterval sets the period of live state publication.
func WithPublishInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishInterval = d
		}
	}
}

// WithReplayInterval sets how fast replay advances through history.
func WithReplayInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.replayInterval = d
		}
	}
}

// WithHistorySize caps the number of retained snapshots.
func WithHistorySize(n int) Option {
	return func(o *options) { o.historySize = n }
}

// WithInFlightPolicy decides what stopping a busy station does with its unit.
func WithInFlightPolicy(p station.InFlightPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithRateWindow sets the initial generation window.
func WithRateWindow(w model.RateWindow) Option {
	return func(o *options) {
		if validRate(w) == nil {
			o.rate = w
		}
	}
}

// WithFlash sets how long a station shows a finished unit.
func WithFlash(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.flash = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// Recorder receives engine and station events for metrics.
type Recorder interface {
	station.Observer
	Generated(bufferID string)
	Rejected(bufferID string)
	Captured(s *model.Snapshot, historyLen int)
}

type noopRecorder struct{}

func (noopRecorder) Completed(string, time.Duration)    {}
func (noopRecorder) Dropped(string, station.DropReason) {}
func (noopRecorder) Generated(string)                   {}
func (noopRecorder) Rejected(string)                    {}
func (noopRecorder) Captured(*model.Snapshot, int)      {}
