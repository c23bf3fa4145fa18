// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the value types that describe the shape of a line:
// positions, service-time ranges and typed edges.
package model

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Position is a 2-D coordinate used only by visual clients.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ServiceRange is the closed interval a station's service time is drawn from.
type ServiceRange struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// DefaultServiceRange is applied to stations created without an explicit range.
var DefaultServiceRange = ServiceRange{Min: 1000 * time.Millisecond, Max: 3000 * time.Millisecond}

// Validate reports whether both bounds are positive and Max >= Min.
func (r ServiceRange) Validate() error {
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("service range bounds must be positive, got [%s, %s]", r.Min, r.Max)
	}
	if r.Max < r.Min {
		return fmt.Errorf("service range max %s is below min %s", r.Max, r.Min)
	}
	return nil
}

// Draw returns a uniformly random duration in [Min, Max] at millisecond
// resolution. The range is assumed valid.
func (r ServiceRange) Draw() time.Duration {
	return UniformDuration(r.Min, r.Max)
}

// UniformDuration returns a uniformly random duration in [lo, hi], in whole
// milliseconds. When hi <= lo it returns lo.
func UniformDuration(lo, hi time.Duration) time.Duration {
	loMS, hiMS := lo.Milliseconds(), hi.Milliseconds()
	if hiMS <= loMS {
		return lo
	}
	return time.Duration(loMS+rand.Int64N(hiMS-loMS+1)) * time.Millisecond
}

// EdgeType distinguishes the two legal edge directions of the bipartite graph.
type EdgeType string

const (
	// BufferToStation binds a buffer as the input of a station.
	BufferToStation EdgeType = "buffer-to-station"
	// StationToBuffer binds a buffer as the output of a station.
	StationToBuffer EdgeType = "station-to-buffer"
)

// ParseEdgeType accepts the canonical names and the legacy queue/machine aliases.
func ParseEdgeType(s string) (EdgeType, error) {
	switch s {
	case string(BufferToStation), "queue-to-machine":
		return BufferToStation, nil
	case string(StationToBuffer), "machine-to-queue":
		return StationToBuffer, nil
	default:
		return "", fmt.Errorf("unknown edge type %q", s)
	}
}

// Edge is a directed, typed connection between a buffer and a station.
type Edge struct {
	From string   `json:"from" yaml:"from"`
	To   string   `json:"to" yaml:"to"`
	Type EdgeType `json:"type" yaml:"type"`
}

// BufferID returns the buffer endpoint of the edge.
func (e Edge) BufferID() string {
	if e.Type == BufferToStation {
		return e.From
	}
	return e.To
}

// StationID returns the station endpoint of the edge.
func (e Edge) StationID() string {
	if e.Type == BufferToStation {
		return e.To
	}
	return e.From
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id string) bool {
	return e.From == id || e.To == id
}
