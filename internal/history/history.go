// Package history keeps a bounded, ordered record of snapshots and a replay
// cursor over it.
package history

import (
	"sync"

	"github.com/specialistvlad/linesim/internal/model"
)

// DefaultCapacity is the number of snapshots kept when no capacity is given.
const DefaultCapacity = 1000

// History is a fixed-size ring of snapshots, oldest evicted first.
type History struct {
	mu     sync.Mutex
	ring   []*model.Snapshot
	head   int // index of the oldest snapshot
	size   int
	cursor int
	active bool
}

// New creates an empty history holding at most capacity snapshots.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{ring: make([]*model.Snapshot, capacity)}
}

// Add appends s, evicting the oldest snapshot when full. The history takes
// ownership of s.
func (h *History) Add(s *model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = s
		h.size++
		return
	}
	h.ring[h.head] = s
	h.head = (h.head + 1) % len(h.ring)
	if h.active && h.cursor > 0 {
		h.cursor--
	}
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Capacity returns the maximum number of stored snapshots.
func (h *History) Capacity() int {
	return len(h.ring)
}

// Get returns a copy of the i-th snapshot, oldest first.
func (h *History) Get(i int) (*model.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.getLocked(i)
	return s.Clone(), ok
}

// Latest returns a copy of the newest snapshot.
func (h *History) Latest() (*model.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.getLocked(h.size - 1)
	return s.Clone(), ok
}

// Clear drops every snapshot and ends any replay.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.ring)
	h.head, h.size = 0, 0
	h.cursor, h.active = 0, false
}

// StartReplay rewinds the cursor and marks replay active. It returns false,
// changing nothing, when the history is empty.
func (h *History) StartReplay() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return false
	}
	h.cursor, h.active = 0, true
	return true
}

// Next returns a copy of the snapshot under the cursor and advances it. Once
// the cursor passes the newest snapshot replay ends and Next returns false.
func (h *History) Next() (*model.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return nil, false
	}
	s, ok := h.getLocked(h.cursor)
	if !ok {
		h.active = false
		return nil, false
	}
	h.cursor++
	return s.Clone(), true
}

// StopReplay marks replay inactive. The cursor keeps its position.
func (h *History) StopReplay() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
}

// Active reports whether a replay is in progress.
func (h *History) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Index returns the replay cursor.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *History) getLocked(i int) (*model.Snapshot, bool) {
	if i < 0 || i >= h.size {
		return nil, false
	}
	return h.ring[(h.head+i)%len(h.ring)], true
}
