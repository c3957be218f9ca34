package wire

import (
	"strings"
	"testing"
)

func TestEncodeSRVClamps(t *testing.T) {
	line := EncodeSRV([3]float64{-10, 200, 90.05})
	if line != "$SRV,0.0,180.0,90.0\n" {
		t.Errorf("unexpected clamped encoding: %q", line)
	}
}

func TestEncodeRGBOmitsGradientFieldsUnlessGradientMode(t *testing.T) {
	line := EncodeRGB(RGBSolid, RGBColor{10, 20, 30}, RGBColor{1, 2, 3}, 40)
	if strings.Count(line, ",") != 4 {
		t.Errorf("solid mode should not carry secondary/speed fields: %q", line)
	}
	line = EncodeRGB(RGBGradient, RGBColor{10, 20, 30}, RGBColor{1, 2, 3}, 40)
	if strings.Count(line, ",") != 8 {
		t.Errorf("gradient mode should carry secondary/speed fields: %q", line)
	}
}

func TestEncodeClampsColorAndSpeed(t *testing.T) {
	line := EncodeRGB(RGBGradient, RGBColor{255, 255, 255}, RGBColor{255, 255, 255}, 999)
	if !strings.HasSuffix(line, ",50\n") {
		t.Errorf("expected speed clamped to 50: %q", line)
	}
}

func TestBuildTxLinesHeartbeatAlwaysSent(t *testing.T) {
	cache := NewTxCache()
	cmd := Command{ServoTarget: [3]float64{90, 90, 90}}
	lines := BuildTxLines(cmd, cache)
	if !strings.HasPrefix(lines[0], "$SRV,") {
		t.Fatalf("expected $SRV first, got %v", lines)
	}
	// Second identical tick: only $SRV should be present.
	lines2 := BuildTxLines(cmd, cache)
	if len(lines2) != 1 {
		t.Fatalf("expected only heartbeat on unchanged tick, got %v", lines2)
	}
}

func TestBuildTxLinesSendsOnlyChangedKinds(t *testing.T) {
	cache := NewTxCache()
	cmd := Command{ServoTarget: [3]float64{90, 90, 90}, LightCommand: LightAuto}
	_ = BuildTxLines(cmd, cache) // first tick sends everything

	cmd.LightCommand = LightOn
	lines := BuildTxLines(cmd, cache)
	foundLGT := false
	for _, l := range lines {
		if strings.HasPrefix(l, "$LGT,") {
			foundLGT = true
		}
		if strings.HasPrefix(l, "$VLV,") {
			t.Errorf("VLV should not retransmit when unchanged: %v", lines)
		}
	}
	if !foundLGT {
		t.Errorf("expected $LGT after light command change: %v", lines)
	}
}

func TestBuildTxLinesForceAllResendsEverything(t *testing.T) {
	cache := NewTxCache()
	cmd := Command{ServoTarget: [3]float64{90, 90, 90}}
	_ = BuildTxLines(cmd, cache)
	cache.ForceAll()
	lines := BuildTxLines(cmd, cache)
	if len(lines) < 8 {
		t.Errorf("expected force-flush to resend every kind, got %v", lines)
	}
}

// TestRoundTripCommandViaSRVAndSTS exercises property 4: encoding then
// decoding via the MCU's own $STS echo format must round-trip clamped values
// bit-exact. $STS reuses servo fields 1-3 as positions, so we assert the
// encoded $SRV values match what a decoded $STS carrying the same numbers
// would report.
func TestRoundTripCommandViaSRVAndSTS(t *testing.T) {
	servo := [3]float64{0, 180, 45.5}
	srv := EncodeSRV(servo)
	// Simulate the MCU echoing the same positions back as telemetry.
	sts := "$STS,0," + srv[len("$SRV,"):len(srv)-1] + ",0,0,0,0,0\n"
	rec, err := DecodeSTS(strings.TrimSuffix(sts, "\n"))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if rec.ServoPositions != [3]float64{0, 180, 45.5} {
		t.Errorf("round trip mismatch: %+v", rec.ServoPositions)
	}
}
