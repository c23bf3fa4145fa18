package buffer

import (
	"slices"

	"github.com/specialistvlad/linesim/internal/model"
)

// AddConsumer records that station id reads from this buffer.
func (b *Buffer) AddConsumer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.consumers, id) {
		b.consumers = append(b.consumers, id)
	}
}

// RemoveConsumer forgets station id as a consumer and drops any pending
// ready registration it still has here.
func (b *Buffer) RemoveConsumer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = slices.DeleteFunc(b.consumers, func(c string) bool { return c == id })
	b.removeReadyLocked(id)
}

// AddProducer records that station id writes into this buffer.
func (b *Buffer) AddProducer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.producers, id) {
		b.producers = append(b.producers, id)
	}
}

// RemoveProducer forgets station id as a producer.
func (b *Buffer) RemoveProducer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.producers = slices.DeleteFunc(b.producers, func(p string) bool { return p == id })
}

// Consumers returns a copy of the consumer station IDs.
func (b *Buffer) Consumers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.consumers)
}

// Producers returns a copy of the producer station IDs.
func (b *Buffer) Producers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.producers)
}

// ReadyIDs returns the IDs in the ready set, head first.
func (b *Buffer) ReadyIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.ready))
	for _, n := range b.ready {
		ids = append(ids, n.ID())
	}
	return ids
}

// Len returns the number of held units.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.units)
}

// IsFull reports whether a bounded buffer is at capacity.
func (b *Buffer) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fullLocked()
}

// Capacity returns the bound, 0 when unbounded.
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// SetCapacity changes the bound. Units already held above a lowered bound
// stay; only later pushes are rejected.
func (b *Buffer) SetCapacity(capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.capacity = max(capacity, 0)
}

// Name returns the display name.
func (b *Buffer) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetName changes the display name.
func (b *Buffer) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}

// Position returns the visual position.
func (b *Buffer) Position() model.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// SetPosition moves the buffer on the board.
func (b *Buffer) SetPosition(pos model.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pos = pos
}

// Drain discards every held unit and returns how many were dropped.
func (b *Buffer) Drain() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.units)
	clear(b.units)
	b.units = nil
	return n
}

// Units returns deep copies of the held units, head first.
func (b *Buffer) Units() []*model.Unit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.CloneUnits(b.units)
}

// View returns a fully owned point-in-time view of the buffer.
func (b *Buffer) View() model.BufferState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.BufferState{
		ID:        b.id,
		Name:      b.name,
		Position:  b.pos,
		Capacity:  b.capacity,
		Size:      len(b.units),
		Full:      b.fullLocked(),
		Units:     model.CloneUnits(b.units),
		Consumers: slices.Clone(b.consumers),
		Producers: slices.Clone(b.producers),
	}
}

// Config returns the structural description of the buffer.
func (b *Buffer) Config() model.BufferConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.BufferConfig{ID: b.id, Name: b.name, Position: b.pos, Capacity: b.capacity}
}
