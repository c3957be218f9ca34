package statemachine

import (
	"testing"
	"time"

	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

// fakeClock advances by one 30Hz tick on every read, simulating a 30Hz
// caller without real sleeps. Times are computed from the tick count so
// that every 30 reads span exactly one second.
type fakeClock struct {
	base  time.Time
	ticks int64
}

func (c *fakeClock) now() time.Time {
	c.ticks++
	return c.base.Add(time.Duration(c.ticks) * time.Second / 30)
}

func newTestMachine(params Params) (*Machine, *fakeClock) {
	clk := &fakeClock{base: time.Unix(0, 0)}
	m := newWithClock(params, clk.now)
	return m, clk
}

func brightFace() vision.FaceRecord {
	return vision.FaceRecord{CameraConnected: true, IsDark: false}
}

func darkFace() vision.FaceRecord {
	return vision.FaceRecord{CameraConnected: true, IsDark: true}
}

func facingDetectedFace(frameWidth int) vision.FaceRecord {
	return vision.FaceRecord{
		CameraConnected: true,
		Detected:        true,
		BBoxW:           frameWidth / 5,
		FrameWidth:      frameWidth,
		NumFacing:       1,
		IsFacing:        true,
	}
}

func connectedTelemetry() wire.Telemetry {
	return wire.Telemetry{Connected: true}
}

// TestS1CleanDispense walks the door-open → COLLAPSE → ALIVE → DISPENSING
// sequence end to end.
func TestS1CleanDispense(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeAlive)

	for i := 0; i < 40; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	if m.State() != StateCollapse {
		t.Fatalf("expected COLLAPSE after sustained light, got %v", m.State())
	}

	for i := 0; i < 60; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	if m.State() != StateAlive {
		t.Fatalf("expected ALIVE after collapse duration with forced outcome, got %v", m.State())
	}

	// Run out ALIVE's ENTRY window.
	for i := 0; i < 60; i++ {
		m.Tick(facingDetectedFace(640), connectedTelemetry())
	}

	telemetry := connectedTelemetry()
	telemetry.LimitTriggered = true
	var lastCmd wire.Command
	dispenseTick := -1
	for i := 0; i < 31; i++ {
		lastCmd = m.Tick(facingDetectedFace(640), telemetry)
		if lastCmd.ValveOpen && dispenseTick == -1 {
			dispenseTick = i
		}
	}
	if dispenseTick == -1 {
		t.Fatalf("expected valve_open=true by the 31st held tick")
	}
	if !lastCmd.ValveOpen {
		t.Fatalf("expected valve still open shortly after the hold completes")
	}
}

// TestInvariantAtMostOneDispensePerSession checks property 1: within one
// door-open session, valve_open only rises from false to true once.
func TestInvariantAtMostOneDispensePerSession(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeAlive)
	m.ForceCollapse()
	for i := 0; i < 60; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	for i := 0; i < 60; i++ {
		m.Tick(facingDetectedFace(640), connectedTelemetry())
	}

	telemetry := connectedTelemetry()
	telemetry.LimitTriggered = true
	rises := 0
	prevOpen := false
	for i := 0; i < 400; i++ {
		cmd := m.Tick(facingDetectedFace(640), telemetry)
		if cmd.ValveOpen && !prevOpen {
			rises++
		}
		prevOpen = cmd.ValveOpen
	}
	if rises > 1 {
		t.Errorf("expected at most one valve_open rising edge per session, got %d", rises)
	}
}

// TestS3DeadNeverDispenses covers scenario S3.
func TestS3DeadNeverDispenses(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeDead)
	m.ForceCollapse()
	for i := 0; i < 60; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	if m.State() != StateDead {
		t.Fatalf("expected DEAD, got %v", m.State())
	}

	telemetry := connectedTelemetry()
	telemetry.LimitTriggered = true
	for i := 0; i < 100; i++ {
		cmd := m.Tick(brightFace(), telemetry)
		if cmd.ValveOpen {
			t.Fatalf("DEAD must never dispense (tick %d)", i)
		}
		if m.State() != StateDead {
			t.Fatalf("expected state to remain DEAD, got %v at tick %d", m.State(), i)
		}
	}
}

// TestS4EmergencyStopClosesValveImmediately covers scenario S4 and invariant 5.
func TestS4EmergencyStopClosesValveImmediately(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeAlive)
	m.ForceCollapse()
	for i := 0; i < 60; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	for i := 0; i < 60; i++ {
		m.Tick(facingDetectedFace(640), connectedTelemetry())
	}

	telemetry := connectedTelemetry()
	telemetry.LimitTriggered = true
	var cmd wire.Command
	for i := 0; i < 31; i++ {
		cmd = m.Tick(facingDetectedFace(640), telemetry)
	}
	if !cmd.ValveOpen {
		t.Fatalf("expected dispensing to have started")
	}

	m.EmergencyStop()
	cmd = m.Tick(facingDetectedFace(640), telemetry)
	if cmd.ValveOpen {
		t.Fatalf("expected valve_open=false immediately after emergency stop")
	}

	for i := 0; i < 50; i++ {
		cmd = m.Tick(facingDetectedFace(640), telemetry)
		if cmd.ValveOpen {
			t.Fatalf("expected valve to stay closed until enable_dispensing, tick %d", i)
		}
	}

	m.EnableDispensing()
	// Re-enabling lifts the latch. This session's dispense window is still
	// running at this point, so a further tick would open the valve again.
}

// TestS5DoorClosesMidAliveTransitionsToInactive covers scenario S5.
func TestS5DoorClosesMidAliveTransitionsToInactive(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeAlive)
	m.ForceCollapse()
	for i := 0; i < 60; i++ {
		m.Tick(brightFace(), connectedTelemetry())
	}
	for i := 0; i < 60; i++ {
		m.Tick(facingDetectedFace(640), connectedTelemetry())
	}
	if m.State() != StateAlive {
		t.Fatalf("expected ALIVE before door closes, got %v", m.State())
	}

	// Darkness starts on the first dark tick, so 2.0s of it have elapsed on
	// tick index 60, the 61st dark frame.
	for i := 0; i <= 60; i++ {
		m.Tick(darkFace(), connectedTelemetry())
	}
	if m.State() != StateInactive {
		t.Fatalf("expected INACTIVE after 2s of sustained darkness, got %v", m.State())
	}
}

// TestInvariantHasDispensedClearedOnInactiveEntry covers property 6.
func TestInvariantHasDispensedClearedOnInactiveEntry(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.session.HasDispensed = true
	m.ForceInactive()
	if m.session.HasDispensed {
		t.Errorf("expected has_dispensed cleared on INACTIVE entry")
	}
}

// TestInvariantCollapseOutcomeHonoredRegardlessOfSkip covers property 7.
func TestInvariantCollapseOutcomeHonoredRegardlessOfSkip(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.SetForcedOutcome(OutcomeDead)
	m.ForceCollapse()
	m.SkipAnimation()
	m.Tick(brightFace(), connectedTelemetry())
	if m.State() != StateDead {
		t.Errorf("expected skip to honor the forced outcome, got %v", m.State())
	}
}

// TestTelemetryDisconnectForcesFault covers the global FAULT transition.
func TestTelemetryDisconnectForcesFault(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.Tick(brightFace(), wire.Telemetry{Connected: false})
	if m.State() != StateFault {
		t.Errorf("expected FAULT when telemetry disconnects, got %v", m.State())
	}
}

// TestFaultRecoversWhenReconnectedAndDispensingEnabled.
func TestFaultRecoversWhenReconnectedAndDispensingEnabled(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.Tick(brightFace(), wire.Telemetry{Connected: false})
	if m.State() != StateFault {
		t.Fatalf("expected FAULT, got %v", m.State())
	}
	m.Tick(brightFace(), connectedTelemetry())
	if m.State() != StateInactive {
		t.Errorf("expected recovery to INACTIVE once reconnected, got %v", m.State())
	}
}

// TestCameraDisconnectForcesInactiveFromNonInactiveState.
func TestCameraDisconnectForcesInactiveFromNonInactiveState(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	m.ForceCollapse()
	disconnected := vision.FaceRecord{CameraConnected: false}
	m.Tick(disconnected, connectedTelemetry())
	if m.State() != StateInactive {
		t.Errorf("expected INACTIVE when camera disconnects outside INACTIVE, got %v", m.State())
	}
}

// TestTrackingDeadzoneAndClamp covers the tracking boundary tests.
func TestTrackingDeadzoneAndClamp(t *testing.T) {
	s := SessionState{TrackingBase: 90}
	p := DefaultParams()

	// Centered face: within deadzone, velocity should be zero (base unchanged).
	updateTracking(&s, vision.FaceRecord{FrameWidth: 100, BBoxX: 48, BBoxW: 4}, p)
	if s.TrackingBase != 90 {
		t.Errorf("expected no movement inside deadzone, got %v", s.TrackingBase)
	}

	// Far-left face: velocity should be floored/clamped, never overshoot past max velocity in one tick.
	s.TrackingBase = 90
	updateTracking(&s, vision.FaceRecord{FrameWidth: 100, BBoxX: 0, BBoxW: 2}, p)
	if delta := s.TrackingBase - 90; delta > p.TrackingMaxVelocity || delta < -p.TrackingMaxVelocity {
		t.Errorf("tracking velocity exceeded max: delta=%v", delta)
	}
}

func TestServoEmitsAlwaysClamped(t *testing.T) {
	m, _ := newTestMachine(DefaultParams())
	cmd := m.Tick(brightFace(), connectedTelemetry())
	for _, v := range cmd.ServoTarget {
		if v < 0 || v > 180 {
			t.Errorf("servo target out of range: %v", v)
		}
	}
}
