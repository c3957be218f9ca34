package vision

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSink struct {
	frames []FaceRecord
}

func (s *fakeSink) PutFrame(f FaceRecord)             { s.frames = append(s.frames, f) }
func (s *fakeSink) UpdateFPS(camera, tracker float64) {}
func (s *fakeSink) AddError(msg string)               {}

type fakeDetector struct {
	detections []Detection
	err        error
}

func (d *fakeDetector) Detect(Frame) ([]Detection, error) { return d.detections, d.err }

type flakyCamera struct {
	fail  bool
	frame Frame
}

func (c *flakyCamera) Read() (Frame, bool) {
	if c.fail {
		return Frame{}, false
	}
	return c.frame, true
}
func (c *flakyCamera) Connected() bool { return !c.fail }
func (c *flakyCamera) Close() error    { return nil }

func TestDarkFramePublishesIsDarkWithoutDetecting(t *testing.T) {
	sink := &fakeSink{}
	gray := make([]byte, 100) // all zero: very dark
	cam := &flakyCamera{frame: Frame{Width: 10, Height: 10, Gray: gray}}
	det := &fakeDetector{detections: []Detection{{IsFacing: true, BBoxW: 5}}}
	p := NewProducer(cam, det, sink, Params{DarkThreshold: 40, DarkPercentile: 75, DarkVarianceEnabled: true, DarkVarianceThresh: 40, FailThreshold: 30, MinFaceWidthRatio: 0.06})

	p.tick()

	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 published frame, got %d", len(sink.frames))
	}
	got := sink.frames[0]
	if !got.IsDark || got.Detected {
		t.Errorf("expected dark frame with no detection attempted: %+v", got)
	}
}

func TestBrightFrameInvokesDetectorAndAggregatesFacing(t *testing.T) {
	sink := &fakeSink{}
	gray := make([]byte, 100)
	for i := range gray {
		gray[i] = 200 // bright
	}
	cam := &flakyCamera{frame: Frame{Width: 100, Height: 100, Gray: gray}}
	det := &fakeDetector{detections: []Detection{
		{IsFacing: true, BBoxW: 10},
		{IsFacing: false, BBoxW: 8},
		{IsFacing: true, BBoxW: 2}, // below min width ratio, still counted in num_facing
	}}
	p := NewProducer(cam, det, sink, Params{DarkThreshold: 40, DarkPercentile: 75, DarkVarianceEnabled: true, DarkVarianceThresh: 40, FailThreshold: 30, MinFaceWidthRatio: 0.06})

	p.tick()

	got := sink.frames[0]
	if got.IsDark {
		t.Fatalf("expected non-dark frame")
	}
	if !got.Detected {
		t.Fatalf("expected a detection to be published")
	}
	if got.NumFaces != 3 || got.NumFacing != 2 {
		t.Errorf("expected 3 faces / 2 facing, got %d/%d", got.NumFaces, got.NumFacing)
	}
}

func TestConsecutiveCameraFailuresMarkDisconnected(t *testing.T) {
	sink := &fakeSink{}
	cam := &flakyCamera{fail: true}
	det := &fakeDetector{}
	p := NewProducer(cam, det, sink, Params{FailThreshold: 3})

	for i := 0; i < 3; i++ {
		p.tick()
	}

	last := sink.frames[len(sink.frames)-1]
	if last.CameraConnected {
		t.Errorf("expected camera_connected=false after reaching the failure threshold")
	}
}

func TestDetectorErrorDoesNotPublishDetection(t *testing.T) {
	sink := &fakeSink{}
	gray := make([]byte, 100)
	for i := range gray {
		gray[i] = 200
	}
	cam := &flakyCamera{frame: Frame{Width: 10, Height: 10, Gray: gray}}
	det := &fakeDetector{err: errors.New("model crashed")}
	p := NewProducer(cam, det, sink, Params{DarkThreshold: 40, DarkPercentile: 75, FailThreshold: 30})

	p.tick()

	got := sink.frames[0]
	if got.Detected {
		t.Errorf("expected no detection published on detector error")
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	sink := &fakeSink{}
	cam := &flakyCamera{frame: Frame{Width: 1, Height: 1, Gray: []byte{0}}}
	det := &fakeDetector{}
	p := NewProducer(cam, det, sink, Params{DarkThreshold: 40, DarkPercentile: 75, FailThreshold: 30})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
}
