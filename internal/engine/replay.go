package engine

import (
	"context"
)

// StartReplay stops live simulation and walks history from the oldest
// snapshot, publishing one frame per replay interval. Replay ends on its own
// after the newest snapshot. With an empty history it does nothing and
// returns false.
func (e *Engine) StartReplay() bool {
	e.mu.Lock()
	if e.closed || e.history.Len() == 0 {
		e.mu.Unlock()
		return false
	}
	e.stopLocked()
	e.stopReplayLocked()
	if !e.history.StartReplay() {
		e.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.replay = cancel
	e.goTracked(func() {
		e.advance(ctx)
		every(ctx, e.opts.replayInterval, func() { e.advance(ctx) })
	})
	e.mu.Unlock()

	e.logger.Info("⏪ Replay started.", "snapshots", e.history.Len())
	return true
}

// StopReplay ends an active replay. It returns false if none was active.
func (e *Engine) StopReplay() bool {
	e.mu.Lock()
	stopped := e.stopReplayLocked()
	e.mu.Unlock()

	if !stopped {
		return false
	}
	e.logger.Info("Replay stopped.")
	e.publish()
	return true
}

// stopReplayLocked reports whether an active replay was stopped.
func (e *Engine) stopReplayLocked() bool {
	if e.replay == nil {
		return false
	}
	e.replay()
	e.replay = nil
	e.frame = nil
	e.history.StopReplay()
	return true
}

// advance publishes the next replay frame or ends the replay when history is
// exhausted.
func (e *Engine) advance(ctx context.Context) {
	e.mu.Lock()
	if ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	frame, ok := e.history.Next()
	if !ok {
		e.stopReplayLocked()
		e.mu.Unlock()
		e.logger.Info("Replay finished.")
		e.publish()
		return
	}
	e.frame = frame
	state := e.stateLocked(frame.Clone())
	e.mu.Unlock()

	e.broadcast(state)
}
