package snapshot

import (
	"strconv"
	"testing"
	"time"

	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

func TestPutGetFaceRoundTrips(t *testing.T) {
	s := New()
	s.PutFrame(vision.FaceRecord{Detected: true, NumFacing: 2})
	got := s.GetFace()
	if !got.Detected || got.NumFacing != 2 {
		t.Errorf("unexpected face record: %+v", got)
	}
}

func TestPutTelemetryBumpsRxCountAndStampsArrival(t *testing.T) {
	s := New()
	s.PutTelemetry(wire.Telemetry{Connected: true}, "$STS,0,90.0,90.0,90.0,0,0")
	got := s.GetTelemetry()
	if !got.Connected {
		t.Errorf("expected connected telemetry")
	}
	if got.LastRxTime == 0 {
		t.Errorf("expected LastRxTime to be stamped")
	}
	c := s.Counters(time.Now())
	if c.UARTRxCount != 1 || c.LastRxLine == "" {
		t.Errorf("expected rx count bumped and last line recorded, got %+v", c)
	}
}

func TestCheckConnectionMarksStaleTelemetryDisconnected(t *testing.T) {
	s := New()
	old := time.Now().Add(-time.Second)
	s.PutTelemetry(wire.Telemetry{Connected: true}, "")
	// Force an old arrival time directly on the guarded field to simulate
	// staleness; PutTelemetry always stamps the current time.
	s.mu.Lock()
	s.telemetry.LastRxTime = old.UnixMilli()
	s.mu.Unlock()

	s.CheckConnection(time.Now(), 500*time.Millisecond)
	if s.GetTelemetry().Connected {
		t.Errorf("expected stale telemetry to be marked disconnected")
	}
}

func TestErrorRingIsBoundedFIFO(t *testing.T) {
	s := New()
	for i := 0; i < 15; i++ {
		s.AddError(strconv.Itoa(i))
	}
	c := s.Counters(time.Now())
	if len(c.Errors) != errRingCapacity {
		t.Errorf("expected error ring capped at %d, got %d", errRingCapacity, len(c.Errors))
	}
	if len(c.Errors) == errRingCapacity && (c.Errors[0] != "5" || c.Errors[errRingCapacity-1] != "14") {
		t.Errorf("expected the oldest entries evicted first, got %v", c.Errors)
	}
}

func TestCountersCopyIsIndependent(t *testing.T) {
	s := New()
	s.AddError("first")
	c := s.Counters(time.Now())
	s.AddError("second")
	if len(c.Errors) != 1 {
		t.Errorf("expected returned Counters snapshot to be independent of later writes, got %v", c.Errors)
	}
}

func TestPutCommandGetCommandRoundTrips(t *testing.T) {
	s := New()
	cmd := wire.SafeCommand()
	cmd.ValveOpen = true
	s.PutCommand(cmd)
	if !s.GetCommand().ValveOpen {
		t.Errorf("expected command round trip to preserve ValveOpen")
	}
}
