// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"slices"
	"sync"

	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
	"github.com/specialistvlad/linesim/internal/topologystore"
)

var _ topologystore.Store = (*Store)(nil)

// Store implements topologystore.Store using a map, a slice and a mutex.
type Store struct {
	mu       sync.RWMutex
	stations map[string]*station.Station
	edges    []model.Edge
}

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{stations: make(map[string]*station.Station)}
}

func (s *Store) AddStation(st *station.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.ID()] = st
}

func (s *Store) Station(id string) (*station.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[id]
	return st, ok
}

func (s *Store) RemoveStation(id string) (*station.Station, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[id]
	delete(s.stations, id)
	return st, ok
}

func (s *Store) Stations() []*station.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*station.Station, 0, len(s.stations))
	for _, st := range s.stations {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b *station.Station) int { return model.CompareIDs(a.ID(), b.ID()) })
	return out
}

func (s *Store) AddEdge(e model.Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.edges, func(x model.Edge) bool { return x.From == e.From && x.To == e.To }) {
		return false
	}
	s.edges = append(s.edges, e)
	return true
}

func (s *Store) RemoveEdge(from, to string) (model.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.edges, func(x model.Edge) bool { return x.From == from && x.To == to })
	if i < 0 {
		return model.Edge{}, false
	}
	e := s.edges[i]
	s.edges = slices.Delete(s.edges, i, i+1)
	return e, true
}

func (s *Store) EdgesTouching(id string) []model.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Edge
	for _, e := range s.edges {
		if e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Edges() []model.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.stations)
	s.edges = nil
}
