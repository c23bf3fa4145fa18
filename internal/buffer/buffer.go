// Package buffer implements the capacity-bounded FIFO that sits between
// stations. A Buffer is a flow.WorkSource and a flow.Sink, and it is the only
// party that decides which idle station gets woken when a unit arrives.
package buffer

import (
	"slices"
	"sync"

	"github.com/specialistvlad/linesim/internal/flow"
	"github.com/specialistvlad/linesim/internal/model"
)

var (
	_ flow.WorkSource = (*Buffer)(nil)
	_ flow.Sink       = (*Buffer)(nil)
)

// Buffer is a single mutual-exclusion domain: every operation on one Buffer
// is serialized, operations on different Buffers never block each other.
type Buffer struct {
	id string

	mu        sync.Mutex
	name      string
	pos       model.Position
	capacity  int // 0 means unbounded
	units     []*model.Unit
	consumers []string // stations reading from this buffer
	producers []string // stations writing into this buffer
	ready     []flow.Notifiable
}

// New creates an empty buffer. A capacity <= 0 means unbounded.
func New(id, name string, pos model.Position, capacity int) *Buffer {
	if name == "" {
		name = id
	}
	return &Buffer{
		id:       id,
		name:     name,
		pos:      pos,
		capacity: max(capacity, 0),
	}
}

// ID returns the buffer's identity.
func (b *Buffer) ID() string {
	return b.id
}

// Push appends u and, if any station is waiting, hands the work off before
// returning. It returns false when the buffer is at capacity.
func (b *Buffer) Push(u *model.Unit) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fullLocked() {
		return false
	}
	u.Location = b.id
	b.units = append(b.units, u)
	b.dispatchLocked()
	return true
}

// Pop removes and returns the head unit.
func (b *Buffer) Pop() (*model.Unit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.popLocked()
}

// RegisterReady wakes n right away when units are held; otherwise n joins the
// tail of the ready set unless it is already in it.
func (b *Buffer) RegisterReady(n flow.Notifiable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registerReadyLocked(n)
}

// RemoveReady drops the pending ready registration for id.
func (b *Buffer) RemoveReady(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeReadyLocked(id)
}

// dispatchLocked pops ready stations until the units run out or nobody is
// left waiting. A station that takes the unit ends the loop in the common
// case; one that declines (stale binding, no longer ready) is simply dropped
// from the ready set and the next one is tried.
func (b *Buffer) dispatchLocked() {
	view := lockedView{b: b}
	for len(b.units) > 0 && len(b.ready) > 0 {
		n := b.ready[0]
		b.ready[0] = nil
		b.ready = b.ready[1:]
		if !n.IsReady() {
			continue
		}
		n.OnWorkAvailable(view)
	}
}

func (b *Buffer) popLocked() (*model.Unit, bool) {
	if len(b.units) == 0 {
		return nil, false
	}
	u := b.units[0]
	b.units[0] = nil
	b.units = b.units[1:]
	return u, true
}

func (b *Buffer) registerReadyLocked(n flow.Notifiable) {
	if len(b.units) > 0 {
		n.OnWorkAvailable(lockedView{b: b})
		return
	}
	id := n.ID()
	if slices.ContainsFunc(b.ready, func(r flow.Notifiable) bool { return r.ID() == id }) {
		return
	}
	b.ready = append(b.ready, n)
}

func (b *Buffer) removeReadyLocked(id string) {
	b.ready = slices.DeleteFunc(b.ready, func(r flow.Notifiable) bool { return r.ID() == id })
}

func (b *Buffer) fullLocked() bool {
	return b.capacity > 0 && len(b.units) >= b.capacity
}

// lockedView exposes the WorkSource operations of a buffer whose mutex is
// already held by the caller. It is handed to Notifiables during a hand-off.
type lockedView struct {
	b *Buffer
}

func (v lockedView) ID() string                      { return v.b.id }
func (v lockedView) Pop() (*model.Unit, bool)        { return v.b.popLocked() }
func (v lockedView) RegisterReady(n flow.Notifiable) { v.b.registerReadyLocked(n) }
func (v lockedView) RemoveReady(id string)           { v.b.removeReadyLocked(id) }
