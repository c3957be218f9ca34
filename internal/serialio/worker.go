package serialio

import (
	"context"
	"io"
	"time"

	"github.com/fizzball/controller/internal/logging"
	"github.com/fizzball/controller/internal/metrics"
	"github.com/fizzball/controller/internal/wire"
)

const (
	backoffStart      = 1 * time.Second
	backoffMultiplier = 1.5
	backoffCap        = 5 * time.Second
	maxConnectRetries = 10
	idlePoll          = 1 * time.Millisecond
	faultSleep        = 1 * time.Second
	reconnectFailWait = 5 * time.Second
	forceFlushDrain   = 150 * time.Millisecond
)

// Store is the narrow slice of the snapshot store the worker uses.
type Store interface {
	GetCommand() wire.Command
	PutTelemetry(t wire.Telemetry, rawLine string)
	BumpTx(line string)
	AddError(msg string)
	CheckConnection(now time.Time, timeout time.Duration)
}

// Options configures a Worker.
type Options struct {
	PortName       string // empty = auto-detect
	Baud           int
	TXRateHz       float64
	ConnTimeout    time.Duration
	MockEnabled    bool
}

// Worker owns the serial handle exclusively: connect/reconnect/backoff,
// periodic transmit, telemetry dispatch. Grounded on
// cmd/can-server/backend_serial.go's RX goroutine and internal/transport's
// async TX funnel, adapted to a single port instead of a client hub.
type Worker struct {
	opts  Options
	store Store

	port   Port
	framer *wire.Framer
	cache  *wire.TxCache

	mockMode bool
}

// NewWorker builds a Worker against the given store.
func NewWorker(store Store, opts Options) *Worker {
	return &Worker{
		opts:   opts,
		store:  store,
		framer: wire.NewFramer(),
		cache:  wire.NewTxCache(),
	}
}

// Run connects and then loops steady-state receive/transmit until ctx is
// cancelled. On unrecoverable connect failure it falls
// back to mock mode (non-fatal,.3 "Ports detection failure").
func (w *Worker) Run(ctx context.Context) {
	if err := w.connect(ctx); err != nil {
		logging.L().Warn("serial_connect_failed_falling_back_to_mock", "error", err)
		metrics.IncError(metrics.ErrSerialOpen)
		w.store.AddError("serial connect failed, using mock mode: " + err.Error())
		w.port = NewMockPort()
		w.mockMode = true
	}
	defer func() {
		if w.port != nil {
			_ = w.port.Close()
		}
	}()

	txInterval := time.Duration(float64(time.Second) / w.opts.TXRateHz)
	lastTx := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.receiveOnce(); err != nil {
			w.handleIOFault(ctx, err)
			continue
		}

		now := time.Now()
		if now.Sub(lastTx) >= txInterval {
			w.transmitOnce()
			lastTx = now
		}

		w.store.CheckConnection(now, w.opts.ConnTimeout)
		time.Sleep(idlePoll)
	}
}

// connect selects a port (explicit or auto-detected) and opens it, retrying
// with exponential backoff up to maxConnectRetries times. If MockEnabled is
// set, it skips straight to a MockPort.
func (w *Worker) connect(ctx context.Context) error {
	if w.opts.MockEnabled {
		w.port = NewMockPort()
		w.mockMode = true
		return nil
	}

	name := w.opts.PortName
	if name == "" {
		name = SelectPort(enumerateAsCandidates())
	}
	if name == "" {
		return errNoPortFound
	}

	backoff := backoffStart
	var lastErr error
	for attempt := 0; attempt < maxConnectRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p, err := OpenReal(name, w.opts.Baud)
		if err == nil {
			w.port = p
			return nil
		}
		lastErr = err
		logging.L().Warn("serial_open_retry", "attempt", attempt+1, "error", err)
		time.Sleep(backoff)
		backoff = time.Duration(float64(backoff) * backoffMultiplier)
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
	return lastErr
}

func enumerateAsCandidates() []CandidatePort {
	return EnumeratePorts()
}

var errNoPortFound = portError("no serial port found")

type portError string

func (e portError) Error() string { return string(e) }

// receiveOnce performs one non-blocking read/feed/dispatch pass.
func (w *Worker) receiveOnce() error {
	buf := make([]byte, 256)
	n, err := w.port.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	if n == 0 {
		return nil
	}
	// The framer returns decoded records only, so the raw line handed to the
	// store is empty and its LastRxLine counter stays empty.
	for _, rec := range w.framer.Feed(buf[:n]) {
		w.store.PutTelemetry(rec, "")
	}
	return nil
}

// transmitOnce sends the heartbeat plus any changed-kind lines for the
// current command record.
func (w *Worker) transmitOnce() {
	cmd := w.store.GetCommand()
	lines := wire.BuildTxLines(cmd, w.cache)
	for _, line := range lines {
		if _, err := w.port.Write([]byte(line)); err != nil {
			logging.L().Warn("serial_write_failed", "error", err)
			metrics.IncError(metrics.ErrSerialWrite)
			continue
		}
		metrics.IncUARTTx()
		w.store.BumpTx(line)
	}
}

// ForceSendAll invalidates the change-detection cache so the next transmit
// pass resends every message kind.
func (w *Worker) ForceSendAll() {
	w.cache.ForceAll()
}

// DrainForShutdown invalidates the cache, sends one full burst directly from
// the caller's goroutine, then waits long enough for at least two more
// transmit cycles of the worker loop to flush.
func (w *Worker) DrainForShutdown() {
	w.ForceSendAll()
	w.transmitOnce()
	time.Sleep(forceFlushDrain)
}

func (w *Worker) handleIOFault(ctx context.Context, err error) {
	logging.L().Warn("serial_io_fault", "error", err)
	metrics.IncError(metrics.ErrSerialRead)
	w.store.AddError("serial I/O fault: " + err.Error())
	if w.mockMode {
		// Mock mode never desyncs in a way retrying would fix.
		return
	}
	if w.port != nil {
		_ = w.port.Close()
	}
	time.Sleep(faultSleep)
	if reconErr := w.connect(ctx); reconErr != nil {
		time.Sleep(reconnectFailWait)
	}
}
