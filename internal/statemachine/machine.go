package statemachine

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fizzball/controller/internal/metrics"
	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

// Machine runs the interaction tick loop and exclusively owns SessionState.
// Operator override methods are called out-of-band from the dashboard
// collaborator's goroutine, so access is guarded by a mutex even though Tick
// itself is only ever called from one goroutine.
type Machine struct {
	mu      sync.Mutex
	session SessionState
	params  Params
	clock   func() time.Time
}

// New returns a Machine starting INACTIVE with dispensing enabled.
func New(params Params) *Machine {
	return newWithClock(params, time.Now)
}

// newWithClock lets tests drive the machine with a synthetic clock instead
// of sleeping for real durations.
func newWithClock(params Params, clock func() time.Time) *Machine {
	return &Machine{
		session: NewSessionState(clock()),
		params:  params,
		clock:   clock,
	}
}

// State returns the current top-level state (for metrics/logging).
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State
}

// Tick runs one pass of the interaction state machine at the caller's
// cadence and returns the full command record to publish.
func (m *Machine) Tick(face vision.FaceRecord, telemetry wire.Telemetry) wire.Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	s := &m.session

	m.applyGlobalTransitions(face, telemetry, now)
	m.updateDarkLightTimers(face, now)
	m.expireManualValve(now)

	var cmd wire.Command
	switch s.State {
	case StateInactive:
		cmd = m.tickInactive(face, now)
	case StateCollapse:
		cmd = m.tickCollapse(now)
	case StateAlive:
		cmd = m.tickAlive(face, telemetry, now)
	case StateDead:
		cmd = m.tickDead(telemetry, now)
	case StateFault:
		cmd = m.tickFault(now)
	default:
		cmd = wire.SafeCommand()
	}

	cmd.ValveOpen = (cmd.ValveOpen || s.ManualValveOpen) && s.DispensingEnabled
	cmd.DispensingEnabled = s.DispensingEnabled

	metrics.SetSessionState(s.State.String(), AllStates())
	return cmd
}

// applyGlobalTransitions handles the transitions that apply regardless of
// the current state's own handler.
func (m *Machine) applyGlobalTransitions(face vision.FaceRecord, telemetry wire.Telemetry, now time.Time) {
	s := &m.session

	if !telemetry.Connected {
		if s.State != StateFault {
			m.enterState(StateFault, now)
		}
		return
	}
	if s.State == StateFault {
		if s.DispensingEnabled {
			m.enterState(StateInactive, now)
		}
		return
	}
	if s.State != StateInactive && !face.CameraConnected {
		m.enterState(StateInactive, now)
		return
	}
	if (s.State == StateAlive || s.State == StateDead) && m.darkSustained(now) {
		m.enterState(StateInactive, now)
	}
}

func (m *Machine) darkSustained(now time.Time) bool {
	s := &m.session
	return !s.DarkStartTime.IsZero() && now.Sub(s.DarkStartTime) >= m.params.DarkToInactiveDuration
}

func (m *Machine) lightSustained(face vision.FaceRecord, now time.Time) bool {
	s := &m.session
	return face.CameraConnected && !s.LightStartTime.IsZero() && now.Sub(s.LightStartTime) >= m.params.LightToCollapseDuration
}

// updateDarkLightTimers maintains the contiguous-run timestamps used for
// door detection.
func (m *Machine) updateDarkLightTimers(face vision.FaceRecord, now time.Time) {
	s := &m.session
	if face.IsDark {
		if s.DarkStartTime.IsZero() {
			s.DarkStartTime = now
		}
		s.LightStartTime = time.Time{}
	} else {
		if s.LightStartTime.IsZero() {
			s.LightStartTime = now
		}
		s.DarkStartTime = time.Time{}
	}
}

func (m *Machine) expireManualValve(now time.Time) {
	s := &m.session
	if s.ManualValveOpen && now.Sub(s.ManualValveOpenAt) >= m.params.DispenseDuration {
		s.ManualValveOpen = false
	}
}

// enterState transitions to a new top-level state, running its entry
// side-effects.
func (m *Machine) enterState(state State, now time.Time) {
	s := &m.session
	s.State = state
	s.StateEntryTime = now

	switch state {
	case StateInactive:
		s.HasDispensed = false
		s.DispenseStartTime = time.Time{}
		s.RejectStartTime = time.Time{}
		s.LightStartTime = time.Time{}
	case StateCollapse:
		if s.ForcedOutcome != OutcomeNone {
			s.Outcome = s.ForcedOutcome
			s.ForcedOutcome = OutcomeNone
		} else if rand.Float64() < m.params.AliveProbability {
			s.Outcome = OutcomeAlive
		} else {
			s.Outcome = OutcomeDead
		}
	case StateAlive:
		s.AliveBehavior = AliveEntry
		startArmWave(s, m.params)
	case StateDead:
		s.DeadBehavior = DeadEntry
	}
}

// tickInactive renders INACTIVE's static visuals and checks the door-open
// transition into COLLAPSE. When the transition fires, COLLAPSE's own visuals are
// rendered immediately so the same tick reflects the new state.
func (m *Machine) tickInactive(face vision.FaceRecord, now time.Time) wire.Command {
	if m.lightSustained(face, now) {
		m.enterState(StateCollapse, now)
		return m.tickCollapse(now)
	}
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{90, 90, 90}
	cmd.LightCommand = wire.LightAuto
	return cmd
}

func trackableFace(face vision.FaceRecord, minWidthRatio float64) bool {
	if face.FrameWidth <= 0 {
		return false
	}
	return float64(face.BBoxW)/float64(face.FrameWidth) >= minWidthRatio
}
