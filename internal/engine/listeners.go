package engine

import (
	"fmt"

	"github.com/specialistvlad/linesim/internal/model"
)

// Listener receives every published state. The state is shared between
// listeners and must not be modified. A listener that returns an error or
// panics is removed.
type Listener func(state *model.State) error

// Subscribe registers fn and returns an ID for Unsubscribe.
func (e *Engine) Subscribe(fn Listener) int {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	return id
}

// Unsubscribe removes a listener. It returns false for an unknown ID.
func (e *Engine) Unsubscribe(id int) bool {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	if _, ok := e.listeners[id]; !ok {
		return false
	}
	delete(e.listeners, id)
	return true
}

// publish sends the current state to every listener.
func (e *Engine) publish() {
	e.broadcast(e.CurrentState())
}

// broadcast delivers state on the calling goroutine. No engine, buffer or
// station lock may be held.
func (e *Engine) broadcast(state *model.State) {
	e.lmu.Lock()
	if len(e.listeners) == 0 {
		e.lmu.Unlock()
		return
	}
	targets := make(map[int]Listener, len(e.listeners))
	for id, fn := range e.listeners {
		targets[id] = fn
	}
	e.lmu.Unlock()

	for id, fn := range targets {
		if err := deliver(fn, state); err != nil {
			e.logger.Warn("Dropping failed state listener.", "listener", id, "error", err)
			e.Unsubscribe(id)
		}
	}
}

func deliver(fn Listener, state *model.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return fn(state)
}
