// Package metrics exposes Prometheus counters/gauges for the controller plus
// a cheap locally-mirrored snapshot for periodic slog output when no
// Prometheus scraper is configured. Grounded on the teacher's
// internal/metrics/metrics.go (promauto + atomic local mirror + /metrics,
// /ready HTTP handlers).
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/fizzball/controller/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UARTTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fizzball_uart_tx_total",
		Help: "Total wire messages written to the microcontroller.",
	})
	UARTRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fizzball_uart_rx_total",
		Help: "Total $STS telemetry lines decoded from the microcontroller.",
	})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fizzball_malformed_frames_total",
		Help: "Total rejected malformed wire lines.",
	})
	CameraFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fizzball_camera_fps",
		Help: "Observed camera capture frames per second.",
	})
	TrackerFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fizzball_tracker_fps",
		Help: "Observed face detector throughput, frames per second.",
	})
	SessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fizzball_session_state",
		Help: "1 if the state machine currently occupies this state, else 0.",
	}, []string{"state"})
	DispenseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fizzball_dispense_total",
		Help: "Total sessions that reached DISPENSING.",
	})
	RejectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fizzball_dispense_reject_total",
		Help: "Total repeat-dispense attempts rejected within a session.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fizzball_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fizzball_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable values to bound cardinality).
const (
	ErrCameraOpen   = "camera_open"
	ErrCameraRead   = "camera_read"
	ErrSerialOpen   = "serial_open"
	ErrSerialRead   = "serial_read"
	ErrSerialWrite  = "serial_write"
	ErrSerialTXDrop = "serial_tx_overflow"
	ErrFrameDecode  = "frame_decode"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for cheap periodic logging without scraping Prometheus in-process.
var (
	localUARTTx    uint64
	localUARTRx    uint64
	localMalformed uint64
	localErrors    uint64
	localDispenses uint64
	localRejects   uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	UARTTx    uint64
	UARTRx    uint64
	Malformed uint64
	Errors    uint64
	Dispenses uint64
	Rejects   uint64
}

func Snap() Snapshot {
	return Snapshot{
		UARTTx:    atomic.LoadUint64(&localUARTTx),
		UARTRx:    atomic.LoadUint64(&localUARTRx),
		Malformed: atomic.LoadUint64(&localMalformed),
		Errors:    atomic.LoadUint64(&localErrors),
		Dispenses: atomic.LoadUint64(&localDispenses),
		Rejects:   atomic.LoadUint64(&localRejects),
	}
}

func IncUARTTx() {
	UARTTxFrames.Inc()
	atomic.AddUint64(&localUARTTx, 1)
}

func IncUARTRx() {
	UARTRxFrames.Inc()
	atomic.AddUint64(&localUARTRx, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func IncDispense() {
	DispenseTotal.Inc()
	atomic.AddUint64(&localDispenses, 1)
}

func IncReject() {
	RejectTotal.Inc()
	atomic.AddUint64(&localRejects, 1)
}

func SetCameraFPS(v float64)  { CameraFPS.Set(v) }
func SetTrackerFPS(v float64) { TrackerFPS.Set(v) }

// SetSessionState flips the gauge for the active state to 1 and every other
// known state to 0, so a Grafana panel can stack them without gaps.
func SetSessionState(active string, all []string) {
	for _, s := range all {
		if s == active {
			SessionState.WithLabelValues(s).Set(1)
		} else {
			SessionState.WithLabelValues(s).Set(0)
		}
	}
}

// InitBuildInfo sets the build info gauge and pre-registers error label series.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrCameraOpen, ErrCameraRead, ErrSerialOpen, ErrSerialRead,
		ErrSerialWrite, ErrSerialTXDrop, ErrFrameDecode,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

func Ready() bool { return IsReady() }
