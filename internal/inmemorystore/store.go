// Package inmemorystore provides the ephemeral, thread-safe registry of live
// buffers that stations resolve their input and output through.
//
// # Concurrency Model
//
// The store uses sync.Map rather than a mutex-guarded map because lookups
// happen on hot paths that must never wait on a topology mutation:
//   - a station delivering a finished unit looks up its output buffer
//   - a station going idle looks up its input buffer to register as ready
//   - a stopping station looks up the buffer it requeues into
//
// Topology mutations are rare and always serialized by the engine, so the
// key space is stable while lookups are constant.
package inmemorystore

import (
	"slices"
	"sync"

	"github.com/specialistvlad/linesim/internal/buffer"
	"github.com/specialistvlad/linesim/internal/flow"
	"github.com/specialistvlad/linesim/internal/model"
)

var _ flow.Directory = (*Store)(nil)

// Store maps buffer IDs to live buffers.
type Store struct {
	buffers sync.Map // Key: buffer ID, Value: *buffer.Buffer
}

// New creates an empty buffer store.
func New() *Store {
	return &Store{}
}

// Put registers b under its ID, replacing any previous buffer with that ID.
func (s *Store) Put(b *buffer.Buffer) {
	s.buffers.Store(b.ID(), b)
}

// Get returns the buffer registered under id.
func (s *Store) Get(id string) (*buffer.Buffer, bool) {
	v, ok := s.buffers.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*buffer.Buffer), true
}

// Delete removes the buffer registered under id and returns it.
func (s *Store) Delete(id string) (*buffer.Buffer, bool) {
	v, ok := s.buffers.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return v.(*buffer.Buffer), true
}

// Clear removes every buffer.
func (s *Store) Clear() {
	s.buffers.Clear()
}

// All returns every registered buffer ordered by ID.
func (s *Store) All() []*buffer.Buffer {
	var out []*buffer.Buffer
	s.buffers.Range(func(_, v any) bool {
		out = append(out, v.(*buffer.Buffer))
		return true
	})
	slices.SortFunc(out, func(a, b *buffer.Buffer) int { return model.CompareIDs(a.ID(), b.ID()) })
	return out
}

// Len returns the number of registered buffers.
func (s *Store) Len() int {
	n := 0
	s.buffers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Source implements flow.Directory.
func (s *Store) Source(id string) (flow.WorkSource, bool) {
	b, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return b, true
}

// Sink implements flow.Directory.
func (s *Store) Sink(id string) (flow.Sink, bool) {
	b, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return b, true
}
