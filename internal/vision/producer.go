package vision

import (
	"context"
	"time"

	"github.com/fizzball/controller/internal/logging"
	"github.com/fizzball/controller/internal/metrics"
)

// Sink is the narrow slice of the snapshot store the producer writes to.
type Sink interface {
	PutFrame(FaceRecord)
	UpdateFPS(camera, tracker float64)
	AddError(msg string)
}

// Params carries the darkness/failure tunables out of internal/config
// without this package importing config directly (grounded on the teacher's
// preference for small per-package parameter structs over a shared config
// type, e.g. internal/serial.Options).
type Params struct {
	DarkThreshold       float64
	DarkPercentile      float64
	DarkVarianceEnabled bool
	DarkVarianceThresh  float64
	FailThreshold       int
	MinFaceWidthRatio   float64
}

// Producer owns the camera and detector and publishes FaceRecords to Sink.
type Producer struct {
	camera   Camera
	detector Detector
	sink     Sink
	params   Params

	consecutiveFailures int
	connected           bool

	fpsWindowStart time.Time
	fpsFrameCount  int
	trackerStart   time.Time
	trackerCount   int
}

// NewProducer wires a camera/detector pair into the given sink.
func NewProducer(camera Camera, detector Detector, sink Sink, params Params) *Producer {
	now := time.Now()
	return &Producer{
		camera:         camera,
		detector:       detector,
		sink:           sink,
		params:         params,
		connected:      true,
		fpsWindowStart: now,
		trackerStart:   now,
	}
}

// Run loops capturing frames until ctx is cancelled. Grounded on cmd/can-server/backend_serial.go's RX-loop-with-failure-
// counting shape, generalized from serial reads to camera reads.
func (p *Producer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.tick()
	}
}

func (p *Producer) tick() {
	frame, ok := p.camera.Read()
	now := time.Now()
	if !ok {
		p.consecutiveFailures++
		if p.consecutiveFailures >= p.params.FailThreshold && p.connected {
			p.connected = false
			logging.L().Warn("camera_disconnected", "consecutive_failures", p.consecutiveFailures)
			metrics.IncError(metrics.ErrCameraRead)
			p.sink.AddError("camera read failed repeatedly")
		}
		p.sink.PutFrame(FaceRecord{CameraConnected: p.connected})
		return
	}
	p.consecutiveFailures = 0
	p.connected = true

	p.fpsFrameCount++
	if elapsed := now.Sub(p.fpsWindowStart); elapsed >= time.Second {
		fps := float64(p.fpsFrameCount) / elapsed.Seconds()
		p.fpsFrameCount = 0
		p.fpsWindowStart = now
		trackerFPS := p.trackerFPS(now)
		p.sink.UpdateFPS(fps, trackerFPS)
		metrics.SetCameraFPS(fps)
		metrics.SetTrackerFPS(trackerFPS)
	}

	dark := Darkness(frame.Gray, p.params.DarkPercentile, p.params.DarkThreshold, p.params.DarkVarianceEnabled, p.params.DarkVarianceThresh)
	if dark {
		p.sink.PutFrame(FaceRecord{
			Detected:        false,
			IsDark:          true,
			FrameWidth:      frame.Width,
			FrameHeight:     frame.Height,
			CameraConnected: true,
		})
		return
	}

	detections, err := p.detector.Detect(frame)
	if err != nil {
		logging.L().Debug("detector_error", "err", err)
		p.sink.PutFrame(FaceRecord{
			IsDark:          false,
			FrameWidth:      frame.Width,
			FrameHeight:     frame.Height,
			CameraConnected: true,
		})
		return
	}
	p.trackerCount++

	rec := buildFaceRecord(detections, frame.Width, frame.Height, p.params.MinFaceWidthRatio)
	p.sink.PutFrame(rec)
}

func (p *Producer) trackerFPS(now time.Time) float64 {
	elapsed := now.Sub(p.trackerStart)
	if elapsed <= 0 {
		return 0
	}
	fps := float64(p.trackerCount) / elapsed.Seconds()
	p.trackerStart = now
	p.trackerCount = 0
	return fps
}

// buildFaceRecord picks the primary detection (first trackable facing face,
// else the first detection) and aggregates num_facing,.4.
func buildFaceRecord(detections []Detection, frameWidth, frameHeight int, minWidthRatio float64) FaceRecord {
	rec := FaceRecord{
		FrameWidth:      frameWidth,
		FrameHeight:     frameHeight,
		CameraConnected: true,
		NumFaces:        len(detections),
	}
	if len(detections) == 0 {
		return rec
	}

	for _, d := range detections {
		if d.IsFacing {
			rec.NumFacing++
		}
	}

	primary := detections[0]
	for _, d := range detections {
		if d.IsFacing && trackable(d, frameWidth, minWidthRatio) {
			primary = d
			break
		}
	}

	rec.Detected = true
	rec.BBoxX, rec.BBoxY, rec.BBoxW, rec.BBoxH = primary.BBoxX, primary.BBoxY, primary.BBoxW, primary.BBoxH
	rec.Landmarks = primary.Landmarks
	rec.Yaw, rec.Pitch, rec.Roll = primary.Yaw, primary.Pitch, primary.Roll
	rec.IsFacing = primary.IsFacing
	rec.Confidence = primary.Confidence
	return rec
}

func trackable(d Detection, frameWidth int, minWidthRatio float64) bool {
	if frameWidth <= 0 {
		return false
	}
	return float64(d.BBoxW)/float64(frameWidth) >= minWidthRatio
}
