package station

import (
	"github.com/specialistvlad/linesim/internal/model"
)

// BindInput makes buffer id the station's input, replacing any previous one.
// An empty id unbinds. A running idle station registers with the new input
// right away.
func (s *Station) BindInput(id string) {
	s.mu.Lock()
	old := s.inputID
	s.inputID = id
	idle := s.running && s.ready && !s.processing
	s.mu.Unlock()

	if old != id {
		s.withdraw(old)
	}
	if idle {
		s.announce(id)
	}
}

// BindOutput makes buffer id the station's output. An empty id unbinds.
func (s *Station) BindOutput(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputID = id
}

// Input returns the bound input buffer ID, empty when unbound.
func (s *Station) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputID
}

// Output returns the bound output buffer ID, empty when unbound.
func (s *Station) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputID
}

// IsRunning reports whether the station has been started.
func (s *Station) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// IsProcessing reports whether the station holds a unit, including the
// flash hold after delivery.
func (s *Station) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// Completed returns how many units the station has finished.
func (s *Station) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// SetService replaces the service-time range. The next unit uses it.
func (s *Station) SetService(r model.ServiceRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.service = r
	return nil
}

// Service returns the service-time range.
func (s *Station) Service() model.ServiceRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.service
}

// SetName changes the display name.
func (s *Station) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// SetPosition moves the station on the board.
func (s *Station) SetPosition(pos model.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
}

// View returns a fully owned point-in-time view of the station.
func (s *Station) View() model.StationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.StationState{
		ID:         s.id,
		Name:       s.name,
		Position:   s.pos,
		Service:    s.service,
		InputID:    s.inputID,
		OutputID:   s.outputID,
		Running:    s.running,
		Ready:      s.ready,
		Processing: s.processing,
		Flashing:   s.flashing,
		Color:      s.color,
		Unit:       s.unit.Clone(),
		Completed:  s.completed,
		BusyTime:   s.busy,
	}
}

// Config returns the structural description of the station.
func (s *Station) Config() model.StationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.StationConfig{ID: s.id, Name: s.name, Position: s.pos, Service: s.service}
}
