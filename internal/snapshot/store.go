// Package snapshot implements the single coarse-grained guarded record shared
// between the vision producer, the state machine, and the serial worker.
// Grounded on the teacher's internal/hub.Hub: one struct behind a single
// lock with copy-out accessors, in place of hub's client-map + broadcast
// shape, matching the single-writer/single-reader AppState design in
// _examples/original_source/rpi/src/state.py.
package snapshot

import (
	"sync"
	"time"

	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

const errRingCapacity = 10

// Counters mirrors SystemCounters: accounting fields that do not
// belong to any single component's record.
type Counters struct {
	UARTTxCount uint64
	UARTRxCount uint64
	FPS         float64
	TrackerFPS  float64
	Uptime      time.Duration
	Errors      []string
	LastTxLine  string
	LastRxLine  string
}

// Store is the guarded record. Every exported method takes/returns values,
// never pointers into internal state, so callers cannot observe or mutate
// fields outside the lock.
type Store struct {
	mu sync.Mutex

	face      vision.FaceRecord
	telemetry wire.Telemetry
	command   wire.Command

	startedAt time.Time
	counters  Counters
}

// New returns an empty Store with a safe, actuator-neutral initial command.
func New() *Store {
	return &Store{
		command:   wire.SafeCommand(),
		startedAt: time.Now(),
	}
}

// PutFrame replaces the current face record.
func (s *Store) PutFrame(f vision.FaceRecord) {
	f.Landmarks = append([]vision.Point(nil), f.Landmarks...)
	s.mu.Lock()
	s.face = f
	s.mu.Unlock()
}

// GetFace returns a copy of the current face record.
func (s *Store) GetFace() vision.FaceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.face
	f.Landmarks = append([]vision.Point(nil), s.face.Landmarks...)
	return f
}

// PutTelemetry replaces the current telemetry, bumping the RX counter and
// recording the raw line for diagnostics. LastRxTime is stamped here with
// the store's own arrival time rather than trusted from the caller, so
// CheckConnection's freshness window is measured consistently regardless of
// where decoding happened.
func (s *Store) PutTelemetry(t wire.Telemetry, rawLine string) {
	t.LastRxTime = time.Now().UnixMilli()
	s.mu.Lock()
	s.telemetry = t
	s.counters.UARTRxCount++
	s.counters.LastRxLine = rawLine
	s.mu.Unlock()
}

// GetTelemetry returns a copy of the current telemetry.
func (s *Store) GetTelemetry() wire.Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.telemetry
}

// PutCommand replaces the current command outright.
func (s *Store) PutCommand(c wire.Command) {
	s.mu.Lock()
	s.command = c
	s.mu.Unlock()
}

// GetCommand returns a copy of the current command.
func (s *Store) GetCommand() wire.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command
}

// CheckConnection marks telemetry disconnected if no packet has arrived
// within timeout of now.
func (s *Store) CheckConnection(now time.Time, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.telemetry.LastRxTime == 0 {
		return
	}
	last := time.UnixMilli(s.telemetry.LastRxTime)
	if now.Sub(last) > timeout {
		s.telemetry.Connected = false
	}
}

// BumpTx records a transmitted line for diagnostics and increments the TX
// counter. Called once per line actually written to the wire, not once per
// tick.
func (s *Store) BumpTx(line string) {
	s.mu.Lock()
	s.counters.UARTTxCount++
	s.counters.LastTxLine = line
	s.mu.Unlock()
}

// AddError appends to the bounded error ring (capacity 10, FIFO), grounded on
// _examples/original_source/rpi/src/state.py's SystemState.add_error.
func (s *Store) AddError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Errors = append(s.counters.Errors, msg)
	if len(s.counters.Errors) > errRingCapacity {
		s.counters.Errors = s.counters.Errors[len(s.counters.Errors)-errRingCapacity:]
	}
}

// UpdateFPS sets the vision producer's rolling camera and tracker FPS.
func (s *Store) UpdateFPS(camera, tracker float64) {
	s.mu.Lock()
	s.counters.FPS = camera
	s.counters.TrackerFPS = tracker
	s.mu.Unlock()
}

// Counters returns a copy of the accounting block, with uptime computed
// against now.
func (s *Store) Counters(now time.Time) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters
	c.Uptime = now.Sub(s.startedAt)
	c.Errors = append([]string(nil), s.counters.Errors...)
	return c
}
