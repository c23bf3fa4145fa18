// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Unit, the discrete work item that flows through the
// line.
package model

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Palette is the set of vibrant display colors a Unit may be born with.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8B500", "#FF6F61", "#6B5B95", "#88B04B", "#F7CAC9",
	"#92A8D1", "#955251", "#B565A7", "#009B77", "#DD4124",
}

// IdleColor is the color a Station shows while it holds no Unit.
const IdleColor = "#6B7280"

// Unit is a single item moving through buffers and stations. ID, Color and
// CreatedAt never change after NewUnit; Location is rewritten on every move.
type Unit struct {
	ID        string    `json:"id" yaml:"id"`
	Color     string    `json:"color" yaml:"color"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	Location  string    `json:"location" yaml:"location"`
}

// NewUnit creates a Unit with a fresh short identity and a random palette color.
func NewUnit(location string) *Unit {
	return &Unit{
		ID:        uuid.NewString()[:8],
		Color:     Palette[rand.IntN(len(Palette))],
		CreatedAt: time.Now(),
		Location:  location,
	}
}

// Clone returns a deep copy of the unit. A nil receiver yields nil.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// CloneUnits deep-copies a slice of units.
func CloneUnits(units []*Unit) []*Unit {
	out := make([]*Unit, 0, len(units))
	for _, u := range units {
		out = append(out, u.Clone())
	}
	return out
}
