// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the plain data types shared by every layer of the line
// simulator. It has no behavior beyond copying, validation and ordering, and
// imports nothing from the rest of the module.
//
// # Core Concepts
//
//   - Unit: a work item flowing through the line, identified by a short random
//     ID and carrying the ID of the buffer or station that currently holds it.
//
//   - Edge: a typed, directed connection between a buffer and a station. The
//     graph is bipartite: an edge never joins two buffers or two stations.
//
//   - Snapshot and State: fully owned deep copies of the line at one instant,
//     safe to hand to any goroutine.
//
//   - Config: the unit-free topology document used for export, import and
//     topology files.
package model
