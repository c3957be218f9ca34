package serialio

import (
	"context"
	"testing"
	"time"

	"github.com/fizzball/controller/internal/wire"
)

type fakeStore struct {
	cmd       wire.Command
	telemetry []wire.Telemetry
	txLines   []string
	errors    []string
}

func (s *fakeStore) GetCommand() wire.Command { return s.cmd }
func (s *fakeStore) PutTelemetry(t wire.Telemetry, raw string) {
	s.telemetry = append(s.telemetry, t)
}
func (s *fakeStore) BumpTx(line string)                                  { s.txLines = append(s.txLines, line) }
func (s *fakeStore) AddError(msg string)                                 { s.errors = append(s.errors, msg) }
func (s *fakeStore) CheckConnection(now time.Time, timeout time.Duration) {}

func TestConnectMockEnabledNeverTouchesRealHardware(t *testing.T) {
	store := &fakeStore{cmd: wire.SafeCommand()}
	w := NewWorker(store, Options{MockEnabled: true, Baud: 115200, TXRateHz: 30, ConnTimeout: 500 * time.Millisecond})
	if err := w.connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.mockMode {
		t.Fatalf("expected mock mode to be set")
	}
	if _, ok := w.port.(*MockPort); !ok {
		t.Fatalf("expected a MockPort, got %T", w.port)
	}
}

func TestTransmitOnceSendsHeartbeatAndBumpsTx(t *testing.T) {
	store := &fakeStore{cmd: wire.SafeCommand()}
	w := NewWorker(store, Options{MockEnabled: true, Baud: 115200, TXRateHz: 30})
	_ = w.connect(context.Background())

	w.transmitOnce()

	if len(store.txLines) == 0 {
		t.Fatalf("expected at least the $SRV heartbeat to be recorded")
	}
}

func TestReceiveOnceDecodesMockTelemetry(t *testing.T) {
	store := &fakeStore{cmd: wire.SafeCommand()}
	w := NewWorker(store, Options{MockEnabled: true, Baud: 115200, TXRateHz: 30})
	_ = w.connect(context.Background())

	// Force the mock to emit a status line immediately.
	mp := w.port.(*MockPort)
	mp.lastStatus = time.Time{}

	deadline := time.Now().Add(time.Second)
	for len(store.telemetry) == 0 && time.Now().Before(deadline) {
		if err := w.receiveOnce(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(store.telemetry) == 0 {
		t.Fatalf("expected at least one decoded telemetry record")
	}
}

func TestForceSendAllResendsEveryKindOnNextTransmit(t *testing.T) {
	store := &fakeStore{cmd: wire.SafeCommand()}
	w := NewWorker(store, Options{MockEnabled: true, Baud: 115200, TXRateHz: 30})
	_ = w.connect(context.Background())

	w.transmitOnce()
	firstCount := len(store.txLines)

	w.ForceSendAll()
	w.transmitOnce()
	secondBurst := len(store.txLines) - firstCount

	if secondBurst < 8 {
		t.Errorf("expected force-flush to resend every message kind, got %d new lines", secondBurst)
	}
}

func TestHandleIOFaultInMockModeDoesNotReconnect(t *testing.T) {
	store := &fakeStore{cmd: wire.SafeCommand()}
	w := NewWorker(store, Options{MockEnabled: true, Baud: 115200, TXRateHz: 30})
	_ = w.connect(context.Background())
	originalPort := w.port

	start := time.Now()
	w.handleIOFault(context.Background(), errSample)
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("mock mode should not sleep/retry on I/O fault")
	}
	if w.port != originalPort {
		t.Errorf("mock mode should not replace the port on fault")
	}
	if len(store.errors) != 1 {
		t.Errorf("expected the fault to be recorded, got %d", len(store.errors))
	}
}

type sampleErr string

func (e sampleErr) Error() string { return string(e) }

var errSample = sampleErr("simulated fault")
