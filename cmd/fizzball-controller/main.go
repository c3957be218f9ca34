package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fizzball/controller/internal/config"
	"github.com/fizzball/controller/internal/metrics"
	"github.com/fizzball/controller/internal/serialio"
	"github.com/fizzball/controller/internal/snapshot"
	"github.com/fizzball/controller/internal/statemachine"
	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

// Helper implementations moved to dedicated files: version.go, config.go,
// logger.go, metrics_logger.go, mdns.go.

const tickHz = 30

func main() {
	cfg, cameraStub, showVersion, err := parseFlags()
	if showVersion {
		fmt.Printf("fizzball-controller %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	l := setupLogger(cfg.LogFormat, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	startMetricsLogger(ctx, cfg.LogMetricsEvery, l, &wg)

	store := snapshot.New()

	camera, detector := buildCollaborators(cfg, cameraStub, l)
	producer := vision.NewProducer(camera, detector, store, vision.Params{
		DarkThreshold:       cfg.DarkThreshold,
		DarkPercentile:      cfg.DarkPercentile,
		DarkVarianceEnabled: cfg.DarkVarianceEnabled,
		DarkVarianceThresh:  cfg.DarkVarianceThresh,
		FailThreshold:       cfg.CameraFailThreshold,
		MinFaceWidthRatio:   cfg.MinFaceWidthRatio,
	})

	worker := serialio.NewWorker(store, serialio.Options{
		PortName:    cfg.SerialPort,
		Baud:        cfg.SerialBaud,
		TXRateHz:    cfg.SerialTXRateHz,
		ConnTimeout: cfg.SerialConnTimeout,
		MockEnabled: cfg.SerialMockEnabled,
	})

	machine := statemachine.New(statemachine.Params{
		DarkToInactiveDuration:  2 * time.Second,
		LightToCollapseDuration: 1 * time.Second,
		CollapseDuration:        cfg.CollapseDuration,
		AliveEntryDuration:      cfg.AliveEntryDuration,
		DeadEntryDuration:       cfg.DeadEntryDuration,
		DispenseFlashDuration:   cfg.DispenseFlashDur,
		DispenseDuration:        cfg.PourDuration,
		RejectFlashDuration:     cfg.RejectFlashDur,
		DispenseHoldDuration:    cfg.DispenseHoldDuration,
		TrackingGain:            cfg.TrackingGain,
		TrackingDeadzone:        cfg.TrackingDeadzone,
		TrackingMinVelocity:     cfg.TrackingMinVelocity,
		TrackingMaxVelocity:     cfg.TrackingMaxVelocity,
		MinFaceWidthRatio:       cfg.MinFaceWidthRatio,
		ArmWaveMin:              cfg.ArmWaveMin,
		ArmWaveMax:              cfg.ArmWaveMax,
		ArmWaveSpeed:            cfg.ArmWaveSpeed,
		ArmWaveInterval:         cfg.ArmWaveInterval,
		AliveProbability:        cfg.AliveProbability,
		ShakeSpeed:              statemachine.DefaultParams().ShakeSpeed,
		ShakeRange:              statemachine.DefaultParams().ShakeRange,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		producer.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(loopDone)
		runInteractionLoop(loopCtx, machine, store, l)
	}()

	if cfg.MDNSEnable {
		go func() {
			port := metricsPort(cfg.MetricsAddr)
			cleanup, err := startMDNS(ctx, cfg, port)
			if err != nil {
				l.Warn("mdns_start_failed", "error", err)
				return
			}
			l.Info("mdns_started", "service", mdnsServiceType, "name", cfg.MDNSName, "port", port)
			go func() { <-ctx.Done(); cleanup() }()
		}()
	}

	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })
	if cfg.MetricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.MetricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())

	// Stop the interaction loop so it cannot overwrite the safe command, then
	// force a safe-state flush to the MCU before tearing down the serial
	// worker's goroutine.
	stopLoop()
	<-loopDone
	store.PutCommand(wire.SafeCommand())
	worker.DrainForShutdown()

	cancel()
	wg.Wait()
}

// buildCollaborators resolves the camera/detector pair. Real hardware
// backends are external collaborators outside this repo's scope, so the
// bundled black-frame StubCamera and NullDetector are returned whether or not
// --camera-stub is set; the flag only adds a startup warning.
func buildCollaborators(cfg *config.Config, cameraStub bool, l *slog.Logger) (vision.Camera, vision.Detector) {
	if cameraStub {
		l.Warn("camera_stub_in_use", "reason", "no camera hardware backend bundled, see DESIGN.md")
	}
	return vision.NewStubCamera(cfg.CameraWidth, cfg.CameraHeight), vision.NullDetector{}
}

// runInteractionLoop drives the state machine at tickHz, publishing each
// resulting command to the shared store for the serial worker to transmit.
func runInteractionLoop(ctx context.Context, machine *statemachine.Machine, store *snapshot.Store, l *slog.Logger) {
	ticker := time.NewTicker(time.Second / tickHz)
	defer ticker.Stop()
	l.Info("interaction_loop_started", "tick_hz", tickHz)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			face := store.GetFace()
			telemetry := store.GetTelemetry()
			cmd := machine.Tick(face, telemetry)
			store.PutCommand(cmd)
		}
	}
}

func metricsPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0
	}
	return n
}
