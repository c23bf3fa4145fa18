package station

import (
	"fmt"
	"strings"
	"time"
)

// InFlightPolicy decides what happens to the unit a station holds when it is
// stopped mid-service.
type InFlightPolicy int

const (
	// Discard drops the unit.
	Discard InFlightPolicy = iota
	// Requeue pushes the unit back into the buffer it was taken from. If that
	// buffer is gone or full the unit is dropped.
	Requeue
)

// ParseInFlightPolicy accepts "discard" or "requeue".
func ParseInFlightPolicy(s string) (InFlightPolicy, error) {
	switch strings.ToLower(s) {
	case "discard", "":
		return Discard, nil
	case "requeue":
		return Requeue, nil
	default:
		return Discard, fmt.Errorf("invalid in-flight policy %q: must be 'discard' or 'requeue'", s)
	}
}

func (p InFlightPolicy) String() string {
	if p == Requeue {
		return "requeue"
	}
	return "discard"
}

// DropReason says why a unit left the line without reaching an output buffer.
type DropReason string

const (
	DropNoOutput   DropReason = "no_output"
	DropOutputFull DropReason = "output_full"
	DropStopped    DropReason = "stopped"
)

// Observer receives processing events. Calls are made without any station
// or buffer lock held.
type Observer interface {
	Completed(stationID string, service time.Duration)
	Dropped(stationID string, reason DropReason)
}

type noopObserver struct{}

func (noopObserver) Completed(string, time.Duration) {}
func (noopObserver) Dropped(string, DropReason)      {}
