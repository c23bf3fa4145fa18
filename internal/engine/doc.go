// Package engine orchestrates a production line: it owns the topology of
// buffers and stations, generates units into the entry buffer, supervises
// station lifecycles, records snapshots into history and publishes state to
// listeners, live or replayed.
//
// Every exported method is safe for concurrent use and reports failure as a
// boolean or an absent result. Nothing panics across the package boundary.
//
// # Locking
//
// The engine's RWMutex serializes topology mutations and lets snapshot capture
// read a whole pre- or post-mutation topology. Buffers live in a lock-free
// directory so a station handing off a unit never waits on that mutex.
// Listeners are always called with no engine, buffer or station lock held.
package engine
