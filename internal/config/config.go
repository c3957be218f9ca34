// Package config collects every tunable of the controller into one immutable
// value constructed at startup and passed by reference to each component. No
// package keeps a global config singleton.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every recognized tunable.
// Once built and validated at startup, a Config is never mutated.
type Config struct {
	// Camera
	CameraIndex  int
	CameraWidth  int
	CameraHeight int
	CameraFPS    int
	CameraFailThreshold int

	// Darkness detection
	DarkThreshold        float64
	DarkPercentile       float64
	DarkVarianceEnabled  bool
	DarkVarianceThresh   float64

	// Serial / wire
	SerialPort        string // empty = auto-detect
	SerialBaud        int
	SerialTXRateHz    float64
	SerialConnTimeout time.Duration
	SerialMockEnabled bool

	// Tracking
	TrackingGain        float64
	TrackingDeadzone    float64
	TrackingMinVelocity float64
	TrackingMaxVelocity float64
	MinFaceWidthRatio   float64

	// Timing
	PourDuration         time.Duration
	DispenseFlashDur     time.Duration
	RejectFlashDur       time.Duration
	DispenseHoldDuration time.Duration
	CollapseDuration     time.Duration
	AliveEntryDuration   time.Duration
	DeadEntryDuration    time.Duration
	ArmWaveMin           float64
	ArmWaveMax           float64
	ArmWaveSpeed         float64
	ArmWaveInterval      time.Duration
	AliveProbability     float64

	// Ambient
	LogFormat      string
	LogLevel       string
	MetricsAddr    string
	LogMetricsEvery time.Duration
	MDNSEnable     bool
	MDNSName       string
}

const (
	defaultSerialBaud       = 115200
	defaultSerialTXRateHz   = 30
	defaultSerialConnTO     = 500 * time.Millisecond
	defaultCameraFailThresh = 30
)

// Default returns the documented production defaults.
func Default() *Config {
	return &Config{
		CameraIndex:         0,
		CameraWidth:         640,
		CameraHeight:        480,
		CameraFPS:           30,
		CameraFailThreshold: defaultCameraFailThresh,

		DarkThreshold:       40,
		DarkPercentile:      75,
		DarkVarianceEnabled: true,
		DarkVarianceThresh:  40,

		SerialPort:        "",
		SerialBaud:        defaultSerialBaud,
		SerialTXRateHz:    defaultSerialTXRateHz,
		SerialConnTimeout: defaultSerialConnTO,
		SerialMockEnabled: false,

		TrackingGain:        0.02,
		TrackingDeadzone:    0.05,
		TrackingMinVelocity: 0.5,
		TrackingMaxVelocity: 3.0,
		MinFaceWidthRatio:   0.06,

		PourDuration:         5 * time.Second,
		DispenseFlashDur:     5 * time.Second,
		RejectFlashDur:       2 * time.Second,
		DispenseHoldDuration: 1 * time.Second,
		CollapseDuration:     2 * time.Second,
		AliveEntryDuration:   2 * time.Second,
		DeadEntryDuration:    2 * time.Second,
		ArmWaveMin:           45,
		ArmWaveMax:           135,
		ArmWaveSpeed:         4,
		ArmWaveInterval:      4 * time.Second,
		AliveProbability:     0.5,

		LogFormat:       "text",
		LogLevel:        "info",
		MetricsAddr:     "",
		LogMetricsEvery: 0,
		MDNSEnable:      false,
		MDNSName:        "",
	}
}

// Validate performs semantic range checks only; it never touches hardware.
// Grounded on appConfig.validate in the teacher's cmd/can-server/config.go.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.LogLevel)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("serial-baud must be > 0 (got %d)", c.SerialBaud)
	}
	if c.SerialTXRateHz <= 0 {
		return errors.New("serial-tx-rate must be > 0")
	}
	if c.SerialConnTimeout <= 0 {
		return errors.New("serial-connection-timeout must be > 0")
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return errors.New("camera width/height must be > 0")
	}
	if c.DarkPercentile < 0 || c.DarkPercentile > 100 {
		return errors.New("dark-percentile must be within [0,100]")
	}
	if c.TrackingMinVelocity < 0 || c.TrackingMaxVelocity < c.TrackingMinVelocity {
		return errors.New("tracking velocity bounds invalid")
	}
	if c.AliveProbability < 0 || c.AliveProbability > 1 {
		return errors.New("alive-probability must be within [0,1]")
	}
	if c.CameraFailThreshold <= 0 {
		return errors.New("camera-fail-threshold must be > 0")
	}
	return nil
}

// ApplyEnvOverrides maps FIZZBALL_* environment variables onto c unless the
// corresponding flag name is present in set (flags always win). Lax parsing:
// malformed values are reported via the returned error but do not stop other
// overrides from applying. Grounded on applyEnvOverrides in the teacher's
// cmd/can-server/config.go.
func ApplyEnvOverrides(c *Config, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) {
		v, ok := os.LookupEnv(k)
		return strings.TrimSpace(v), ok
	}
	noteErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	strOverride := func(flag, env string, dst *string) {
		if _, ok := set[flag]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			*dst = v
		}
	}
	intOverride := func(flag, env string, dst *int) {
		if _, ok := set[flag]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				noteErr(fmt.Errorf("invalid %s: %w", env, err))
				return
			}
			*dst = n
		}
	}
	floatOverride := func(flag, env string, dst *float64) {
		if _, ok := set[flag]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				noteErr(fmt.Errorf("invalid %s: %w", env, err))
				return
			}
			*dst = n
		}
	}
	durOverride := func(flag, env string, dst *time.Duration) {
		if _, ok := set[flag]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				noteErr(fmt.Errorf("invalid %s: %w", env, err))
				return
			}
			*dst = d
		}
	}
	boolOverride := func(flag, env string, dst *bool) {
		if _, ok := set[flag]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}

	strOverride("serial-port", "FIZZBALL_SERIAL_PORT", &c.SerialPort)
	intOverride("serial-baud", "FIZZBALL_SERIAL_BAUD", &c.SerialBaud)
	boolOverride("serial-mock", "FIZZBALL_SERIAL_MOCK", &c.SerialMockEnabled)
	intOverride("camera-index", "FIZZBALL_CAMERA_INDEX", &c.CameraIndex)
	intOverride("camera-width", "FIZZBALL_CAMERA_WIDTH", &c.CameraWidth)
	intOverride("camera-height", "FIZZBALL_CAMERA_HEIGHT", &c.CameraHeight)
	floatOverride("dark-threshold", "FIZZBALL_DARK_THRESHOLD", &c.DarkThreshold)
	floatOverride("alive-probability", "FIZZBALL_ALIVE_PROBABILITY", &c.AliveProbability)
	strOverride("log-format", "FIZZBALL_LOG_FORMAT", &c.LogFormat)
	strOverride("log-level", "FIZZBALL_LOG_LEVEL", &c.LogLevel)
	strOverride("metrics-addr", "FIZZBALL_METRICS", &c.MetricsAddr)
	durOverride("log-metrics-interval", "FIZZBALL_LOG_METRICS_INTERVAL", &c.LogMetricsEvery)
	boolOverride("mdns-enable", "FIZZBALL_MDNS_ENABLE", &c.MDNSEnable)
	strOverride("mdns-name", "FIZZBALL_MDNS_NAME", &c.MDNSName)

	return firstErr
}
