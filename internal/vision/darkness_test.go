package vision

import "testing"

func TestDarknessUniformBlackIsDark(t *testing.T) {
	gray := make([]byte, 256)
	if !Darkness(gray, 75, 40, true, 40) {
		t.Errorf("expected uniformly black frame to be dark")
	}
}

func TestDarknessBrightFrameIsNotDark(t *testing.T) {
	gray := make([]byte, 256)
	for i := range gray {
		gray[i] = 220
	}
	if Darkness(gray, 75, 40, true, 40) {
		t.Errorf("expected bright frame to not be dark")
	}
}

func TestDarknessVarianceDistinguishesDimVariedScene(t *testing.T) {
	// 75th percentile falls below the brightness threshold, but a bright
	// minority of pixels pushes standard deviation above the variance
	// threshold: a varied dim scene, not a uniformly dark enclosure.
	gray := make([]byte, 200)
	for i := range gray {
		if i < 160 {
			gray[i] = 0
		} else {
			gray[i] = 200
		}
	}
	if Darkness(gray, 75, 40, true, 40) {
		t.Errorf("expected high-variance dim scene to not count as dark")
	}
}

func TestDarknessVarianceDisabledIgnoresStdDev(t *testing.T) {
	gray := make([]byte, 200)
	for i := range gray {
		if i%2 == 0 {
			gray[i] = 0
		} else {
			gray[i] = 5
		}
	}
	if !Darkness(gray, 75, 40, false, 1) {
		t.Errorf("expected dark frame with variance check disabled to be dark regardless of stddev")
	}
}

func TestPercentileBracketsAndExtremes(t *testing.T) {
	gray := []byte{10, 20, 30, 40, 50}
	if got := Percentile(gray, 0); got != 10 {
		t.Errorf("p0 = %v, want 10", got)
	}
	if got := Percentile(gray, 100); got != 50 {
		t.Errorf("p100 = %v, want 50", got)
	}
}
