// Package topologystore defines the interface for storing the structure of a
// line: its stations and the typed edges that bind them to buffers.
//
// # Why Topology Store Exists
//
// Buffers are looked up on every unit hand-off and live in a lock-free
// directory (see internal/inmemorystore). Stations and edges change only
// through topology mutations and are read by snapshot capture, so they sit
// behind a reader-friendly store of their own. Keeping the two apart means a
// station delivering a unit never contends with an editor reshaping the line.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Callers that need several
// calls to appear atomic (for example "remove a station and every edge
// touching it") serialize those calls themselves.
package topologystore

import (
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
)

// Store manages stations and edges.
type Store interface {
	// AddStation registers st under its ID. Adding an existing ID replaces it.
	AddStation(st *station.Station)

	// Station returns the station registered under id.
	Station(id string) (*station.Station, bool)

	// RemoveStation forgets the station registered under id and returns it.
	RemoveStation(id string) (*station.Station, bool)

	// Stations returns every station ordered by ID.
	Stations() []*station.Station

	// AddEdge records e. It returns false if an edge with the same endpoints
	// already exists.
	AddEdge(e model.Edge) bool

	// RemoveEdge deletes the edge from → to and returns it.
	RemoveEdge(from, to string) (model.Edge, bool)

	// EdgesTouching returns every edge with id as one of its endpoints.
	EdgesTouching(id string) []model.Edge

	// Edges returns a copy of all edges in insertion order.
	Edges() []model.Edge

	// Clear removes every station and edge.
	Clear()
}
