// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the exportable topology document. It carries structure
// only: buffers, stations, edges and the entry point. Units in flight are
// never part of it.
package model

import "time"

// BufferConfig describes one buffer in an exported topology.
type BufferConfig struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Position Position `json:"position" yaml:"position"`
	Capacity int      `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// StationConfig describes one station in an exported topology.
type StationConfig struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Position Position     `json:"position" yaml:"position"`
	Service  ServiceRange `json:"service" yaml:"service"`
}

// RateWindow is the [Min, Max] interval between two generated units.
type RateWindow struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// DefaultRateWindow is the generation window used when none is configured.
var DefaultRateWindow = RateWindow{Min: 500 * time.Millisecond, Max: 2000 * time.Millisecond}

// Config is a complete, unit-free topology description. IDs inside a Config
// are only references local to the document; importing assigns fresh ones.
type Config struct {
	Buffers       []BufferConfig  `json:"buffers" yaml:"buffers"`
	Stations      []StationConfig `json:"stations" yaml:"stations"`
	Edges         []Edge          `json:"edges" yaml:"edges"`
	EntryBufferID string          `json:"entryBufferId,omitempty" yaml:"entry_buffer,omitempty"`
	Generation    *RateWindow     `json:"generation,omitempty" yaml:"generation,omitempty"`
}
