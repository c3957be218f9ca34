package main

import (
	"flag"
	"fmt"

	"github.com/fizzball/controller/internal/config"
)

// parseFlags builds a config.Config from defaults, flags, then environment
// (flags win over environment), plus the two flags that live outside
// config.Config: --camera-stub and --version.
func parseFlags() (*config.Config, bool, bool, error) {
	def := config.Default()
	cfg := &config.Config{}

	cameraIndex := flag.Int("camera-index", def.CameraIndex, "Camera device index")
	cameraWidth := flag.Int("camera-width", def.CameraWidth, "Camera capture width")
	cameraHeight := flag.Int("camera-height", def.CameraHeight, "Camera capture height")
	cameraFPS := flag.Int("camera-fps", def.CameraFPS, "Camera capture frame rate")
	cameraFailThreshold := flag.Int("camera-fail-threshold", def.CameraFailThreshold, "Consecutive camera read failures before marking disconnected")
	cameraStub := flag.Bool("camera-stub", false, "Log a warning that the built-in black-frame stub camera is in use (no hardware camera backend is bundled, so the stub is used either way)")

	darkThreshold := flag.Float64("dark-threshold", def.DarkThreshold, "Darkness brightness threshold (0-255)")
	darkPercentile := flag.Float64("dark-percentile", def.DarkPercentile, "Darkness brightness percentile (0-100)")
	darkVarianceEnabled := flag.Bool("dark-variance-enabled", def.DarkVarianceEnabled, "Require low variance in addition to low brightness")
	darkVarianceThresh := flag.Float64("dark-variance-threshold", def.DarkVarianceThresh, "Darkness standard-deviation threshold")

	serialPort := flag.String("serial-port", def.SerialPort, "Serial device path (empty = auto-detect)")
	serialBaud := flag.Int("serial-baud", def.SerialBaud, "Serial baud rate")
	serialTXRate := flag.Float64("serial-tx-rate", def.SerialTXRateHz, "Serial transmit rate in Hz")
	serialConnTimeout := flag.Duration("serial-connection-timeout", def.SerialConnTimeout, "Telemetry staleness timeout before FAULT")
	serialMock := flag.Bool("serial-mock", def.SerialMockEnabled, "Force the built-in serial simulator instead of real hardware")

	trackingGain := flag.Float64("tracking-gain", def.TrackingGain, "Tracking proportional gain")
	trackingDeadzone := flag.Float64("tracking-deadzone", def.TrackingDeadzone, "Tracking center deadzone (fraction of frame width)")
	trackingMinVelocity := flag.Float64("tracking-min-velocity", def.TrackingMinVelocity, "Minimum nonzero tracking servo velocity (deg/tick)")
	trackingMaxVelocity := flag.Float64("tracking-max-velocity", def.TrackingMaxVelocity, "Maximum tracking servo velocity (deg/tick)")
	minFaceWidthRatio := flag.Float64("min-face-width-ratio", def.MinFaceWidthRatio, "Minimum face bbox width, as a fraction of frame width, to count as trackable")

	pourDuration := flag.Duration("pour-duration", def.PourDuration, "Valve-open duration for a dispense")
	dispenseFlashDur := flag.Duration("dispense-flash-duration", def.DispenseFlashDur, "DISPENSING visual flash duration")
	rejectFlashDur := flag.Duration("reject-flash-duration", def.RejectFlashDur, "DISPENSE_REJECT visual flash duration")
	dispenseHoldDuration := flag.Duration("dispense-hold-duration", def.DispenseHoldDuration, "Limit-switch hold duration required to trigger a dispense")
	collapseDuration := flag.Duration("collapse-duration", def.CollapseDuration, "COLLAPSE animation duration")
	aliveEntryDuration := flag.Duration("alive-entry-duration", def.AliveEntryDuration, "ALIVE entry animation duration")
	deadEntryDuration := flag.Duration("dead-entry-duration", def.DeadEntryDuration, "DEAD entry animation duration")
	armWaveMin := flag.Float64("arm-wave-min", def.ArmWaveMin, "Arm wave servo minimum angle")
	armWaveMax := flag.Float64("arm-wave-max", def.ArmWaveMax, "Arm wave servo maximum angle")
	armWaveSpeed := flag.Float64("arm-wave-speed", def.ArmWaveSpeed, "Arm wave servo speed (deg/tick)")
	armWaveInterval := flag.Duration("arm-wave-interval", def.ArmWaveInterval, "Interval between idle arm waves while DETECTED")
	aliveProbability := flag.Float64("alive-probability", def.AliveProbability, "Probability COLLAPSE resolves to ALIVE")

	logFormat := flag.String("log-format", def.LogFormat, "Log format: text|json")
	logLevel := flag.String("log-level", def.LogLevel, "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", def.MetricsAddr, "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", def.LogMetricsEvery, "If >0, periodically log metrics counters")
	mdnsEnable := flag.Bool("mdns-enable", def.MDNSEnable, "Enable mDNS advertisement")
	mdnsName := flag.String("mdns-name", def.MDNSName, "mDNS instance name (default fizzball-controller-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.CameraIndex = *cameraIndex
	cfg.CameraWidth = *cameraWidth
	cfg.CameraHeight = *cameraHeight
	cfg.CameraFPS = *cameraFPS
	cfg.CameraFailThreshold = *cameraFailThreshold
	cfg.DarkThreshold = *darkThreshold
	cfg.DarkPercentile = *darkPercentile
	cfg.DarkVarianceEnabled = *darkVarianceEnabled
	cfg.DarkVarianceThresh = *darkVarianceThresh
	cfg.SerialPort = *serialPort
	cfg.SerialBaud = *serialBaud
	cfg.SerialTXRateHz = *serialTXRate
	cfg.SerialConnTimeout = *serialConnTimeout
	cfg.SerialMockEnabled = *serialMock
	cfg.TrackingGain = *trackingGain
	cfg.TrackingDeadzone = *trackingDeadzone
	cfg.TrackingMinVelocity = *trackingMinVelocity
	cfg.TrackingMaxVelocity = *trackingMaxVelocity
	cfg.MinFaceWidthRatio = *minFaceWidthRatio
	cfg.PourDuration = *pourDuration
	cfg.DispenseFlashDur = *dispenseFlashDur
	cfg.RejectFlashDur = *rejectFlashDur
	cfg.DispenseHoldDuration = *dispenseHoldDuration
	cfg.CollapseDuration = *collapseDuration
	cfg.AliveEntryDuration = *aliveEntryDuration
	cfg.DeadEntryDuration = *deadEntryDuration
	cfg.ArmWaveMin = *armWaveMin
	cfg.ArmWaveMax = *armWaveMax
	cfg.ArmWaveSpeed = *armWaveSpeed
	cfg.ArmWaveInterval = *armWaveInterval
	cfg.AliveProbability = *aliveProbability
	cfg.LogFormat = *logFormat
	cfg.LogLevel = *logLevel
	cfg.MetricsAddr = *metricsAddr
	cfg.LogMetricsEvery = *logMetricsEvery
	cfg.MDNSEnable = *mdnsEnable
	cfg.MDNSName = *mdnsName

	if err := config.ApplyEnvOverrides(cfg, setFlags); err != nil {
		return nil, *cameraStub, *showVersion, fmt.Errorf("environment override error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, *cameraStub, *showVersion, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, *cameraStub, *showVersion, nil
}
