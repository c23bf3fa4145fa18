package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/specialistvlad/linesim/internal/model"
)

// event is one Server-Sent Event.
type event struct {
	Name string
	ID   string
	Data any
}

// broker fans published states out to SSE subscribers. Slow subscribers
// miss states instead of blocking the engine's publisher.
type broker struct {
	mu   sync.RWMutex
	subs map[chan event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan event]struct{})}
}

func (b *broker) subscribe() chan event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan event, 8)
	b.subs[ch] = struct{}{}
	return ch
}

func (b *broker) unsubscribe(ch chan event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broker) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// publish is registered as an engine listener.
func (b *broker) publish(state *model.State) error {
	ev := event{Name: "state", ID: strconv.FormatUint(state.Sequence, 10), Data: state}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// close ends every open stream.
func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func writeEvent(w io.Writer, ev event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Name, err)
	}
	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}
