package statemachine

// ForceCollapse jumps directly into COLLAPSE regardless of current state.
func (m *Machine) ForceCollapse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterState(StateCollapse, m.clock())
}

// ForceInactive jumps directly into INACTIVE regardless of current state.
func (m *Machine) ForceInactive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterState(StateInactive, m.clock())
}

// SkipAnimation sets a flag consumed by COLLAPSE's exit check on the next
// tick.
func (m *Machine) SkipAnimation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.SkipRequested = true
}

// EmergencyStop clears dispensing_enabled and forces the valve closed; the
// valve stays closed because Tick ANDs its output with dispensing_enabled.
func (m *Machine) EmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.DispensingEnabled = false
	m.session.ManualValveOpen = false
}

// EnableDispensing clears the emergency-stop latch.
func (m *Machine) EnableDispensing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.DispensingEnabled = true
}

// SetForcedOutcome overrides the next COLLAPSE's sampled outcome. Pass
// OutcomeNone to clear a pending override without waiting for it to be
// consumed.
func (m *Machine) SetForcedOutcome(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.ForcedOutcome = o
}

// OpenValve sets the manual valve override, auto-clearing after the
// configured dispense duration.
func (m *Machine) OpenValve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.ManualValveOpen = true
	m.session.ManualValveOpenAt = m.clock()
}

// CloseValve clears the manual valve override immediately.
func (m *Machine) CloseValve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.ManualValveOpen = false
}
