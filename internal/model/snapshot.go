// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the read-side views of the line. A Snapshot is a fully
// owned deep copy of every buffer, station and edge at one instant; State adds
// the live engine flags that clients need next to it.
package model

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// BufferState is the point-in-time view of a single buffer.
type BufferState struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Position  Position `json:"position"`
	Capacity  int      `json:"capacity"`
	Size      int      `json:"size"`
	Full      bool     `json:"full"`
	Units     []*Unit  `json:"units"`
	Consumers []string `json:"consumers"`
	Producers []string `json:"producers"`
}

// Clone returns a deep copy of the buffer view.
func (b BufferState) Clone() BufferState {
	b.Units = CloneUnits(b.Units)
	b.Consumers = slices.Clone(b.Consumers)
	b.Producers = slices.Clone(b.Producers)
	return b
}

// StationState is the point-in-time view of a single station.
type StationState struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Position   Position      `json:"position"`
	Service    ServiceRange  `json:"service"`
	InputID    string        `json:"inputId,omitempty"`
	OutputID   string        `json:"outputId,omitempty"`
	Running    bool          `json:"running"`
	Ready      bool          `json:"ready"`
	Processing bool          `json:"processing"`
	Flashing   bool          `json:"flashing"`
	Color      string        `json:"color"`
	Unit       *Unit         `json:"unit,omitempty"`
	Completed  int           `json:"completed"`
	BusyTime   time.Duration `json:"busyTime"`
}

// Clone returns a deep copy of the station view.
func (s StationState) Clone() StationState {
	s.Unit = s.Unit.Clone()
	return s
}

// Snapshot is an immutable copy of all buffer, station and edge state.
// Buffers and Stations are ordered by ID.
type Snapshot struct {
	Sequence      uint64         `json:"sequence"`
	Timestamp     time.Time      `json:"timestamp"`
	Buffers       []BufferState  `json:"buffers"`
	Stations      []StationState `json:"stations"`
	Edges         []Edge         `json:"edges"`
	EntryBufferID string         `json:"entryBufferId,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		Sequence:      s.Sequence,
		Timestamp:     s.Timestamp,
		Buffers:       make([]BufferState, 0, len(s.Buffers)),
		Stations:      make([]StationState, 0, len(s.Stations)),
		Edges:         slices.Clone(s.Edges),
		EntryBufferID: s.EntryBufferID,
	}
	for _, b := range s.Buffers {
		c.Buffers = append(c.Buffers, b.Clone())
	}
	for _, st := range s.Stations {
		c.Stations = append(c.Stations, st.Clone())
	}
	return c
}

// Buffer looks up a buffer view by ID.
func (s *Snapshot) Buffer(id string) (BufferState, bool) {
	for _, b := range s.Buffers {
		if b.ID == id {
			return b, true
		}
	}
	return BufferState{}, false
}

// Station looks up a station view by ID.
func (s *Snapshot) Station(id string) (StationState, bool) {
	for _, st := range s.Stations {
		if st.ID == id {
			return st, true
		}
	}
	return StationState{}, false
}

// State is the full view handed to listeners and query callers.
type State struct {
	Snapshot
	Running       bool `json:"running"`
	Replaying     bool `json:"replaying"`
	ReplayIndex   int  `json:"replayIndex"`
	HistoryLength int  `json:"historyLength"`
}

// CompareIDs orders identities like "Q2" before "Q10": by alphabetic prefix,
// then by numeric suffix, then lexically.
func CompareIDs(a, b string) int {
	pa, na, oka := splitID(a)
	pb, nb, okb := splitID(b)
	if oka && okb && pa == pb {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func splitID(id string) (string, int, bool) {
	i := strings.IndexFunc(id, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return id, 0, false
	}
	return id[:i], n, true
}
