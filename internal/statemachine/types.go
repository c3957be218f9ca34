// Package statemachine implements the single-threaded interaction tick loop:
// it consumes the latest face and telemetry snapshots, runs the current
// state's handler, and produces a full command record every tick.
// Grounded on _examples/original_source/rpi/src/state_machine.py for
// exact transition order and timer semantics, reimplemented as a Go switch
// over a typed State enum the way the teacher switches over
// BackpressurePolicy/cfg.backend in internal/hub and cmd/can-server/backend.go.
package statemachine

import "time"

// State is the top-level interaction state.
type State int

const (
	StateInactive State = iota
	StateCollapse
	StateAlive
	StateDead
	StateFault
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateCollapse:
		return "COLLAPSE"
	case StateAlive:
		return "ALIVE"
	case StateDead:
		return "DEAD"
	case StateFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// AllStates lists every state, for metrics.SetSessionState's gauge sweep.
func AllStates() []string {
	return []string{
		StateInactive.String(), StateCollapse.String(), StateAlive.String(),
		StateDead.String(), StateFault.String(),
	}
}

// AliveBehavior is the ALIVE state's current sub-behavior.
type AliveBehavior int

const (
	AliveEntry AliveBehavior = iota
	AliveIdle
	AliveDetected
	AliveDispensing
	AliveDispenseReject
)

// DeadBehavior is the DEAD state's current sub-behavior.
type DeadBehavior int

const (
	DeadEntry DeadBehavior = iota
	DeadNormal
	DeadReject
)

// Outcome is the result sampled on entry to COLLAPSE.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAlive
	OutcomeDead
)

// SessionState is exclusively owned by the Machine and never shared outside
// it.
type SessionState struct {
	State             State
	AliveBehavior     AliveBehavior
	DeadBehavior      DeadBehavior
	StateEntryTime    time.Time
	Outcome           Outcome
	HasDispensed      bool
	TrackingBase      float64
	ArmWavePhase      float64
	ArmWaveActive     bool
	ArmWaveDirection  float64
	LastWaveEndTime   time.Time
	ShakeOffset       float64
	ShakeDirection    float64
	DispenseStartTime time.Time
	RejectStartTime   time.Time
	LimitHoldStart    time.Time
	DarkStartTime     time.Time
	LightStartTime    time.Time
	ForcedOutcome     Outcome
	DispensingEnabled bool
	ManualValveOpen   bool
	ManualValveOpenAt time.Time
	SkipRequested     bool
}

// NewSessionState returns a session with dispensing enabled and tracking
// centered, matching a freshly started process.
func NewSessionState(now time.Time) SessionState {
	return SessionState{
		State:             StateInactive,
		StateEntryTime:    now,
		TrackingBase:      90,
		ShakeDirection:    1,
		ArmWaveDirection:  1,
		DispensingEnabled: true,
	}
}
