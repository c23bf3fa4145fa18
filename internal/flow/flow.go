// Package flow defines the capability contracts that let buffers and stations
// coordinate without knowing each other's concrete types.
//
// # Coordination Protocol
//
// A station that goes idle registers itself as ready with its input buffer.
// When a unit arrives, the buffer hands it off by calling OnWorkAvailable on
// the head of its ready set, inside the same critical section as the append.
// That single hand-off is what keeps a unit from sitting in a buffer while an
// idle station waits for it. Nothing polls.
//
//	station.Start ──► WorkSource.RegisterReady ──┐
//	                                             ├─ units held? ─► Notifiable.OnWorkAvailable
//	Sink.Push ──► append ──► pop ready station ──┘                      │
//	                                                                    ▼
//	                                                          WorkSource.Pop ─► process
//
// # Identity, Not Ownership
//
// Stations never keep pointers to buffers. They hold buffer IDs and resolve
// them through a Directory on every use, so deleting a buffer is just a map
// removal and no reference cycles exist.
//
// # Lock Discipline
//
// A buffer holds its own mutex while it calls OnWorkAvailable. The WorkSource
// passed into that callback is a view of the already-locked buffer, so a
// Notifiable must use it (and not a WorkSource from the Directory) during the
// callback. A Notifiable must never hold its own lock while calling into a
// WorkSource or Sink obtained from the Directory.
package flow

import "github.com/specialistvlad/linesim/internal/model"

// Notifiable is anything that can be woken when work is available, typically
// a station.
type Notifiable interface {
	// ID returns the identity the notifiable is registered under.
	ID() string

	// OnWorkAvailable is invoked synchronously by a WorkSource that holds at
	// least one unit. src is only valid for the duration of the call.
	OnWorkAvailable(src WorkSource)

	// IsReady reports whether the notifiable can accept work right now.
	IsReady() bool
}

// WorkSource is anything that holds units for consumers, typically a buffer.
type WorkSource interface {
	ID() string

	// Pop removes and returns the head unit. ok is false when empty.
	Pop() (u *model.Unit, ok bool)

	// RegisterReady either wakes n immediately, if units are held, or adds it
	// to the ready set. Registration is idempotent.
	RegisterReady(n Notifiable)

	// RemoveReady drops a pending ready registration, if any.
	RemoveReady(id string)
}

// Sink accepts units, typically the output buffer of a station.
type Sink interface {
	ID() string

	// Push appends u. It returns false, leaving u untouched, when the sink is
	// at capacity.
	Push(u *model.Unit) bool
}

// Directory resolves buffer identities to their current live instance.
type Directory interface {
	Source(id string) (WorkSource, bool)
	Sink(id string) (Sink, bool)
}
