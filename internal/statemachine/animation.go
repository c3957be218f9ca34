package statemachine

import "github.com/fizzball/controller/internal/vision"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateTracking integrates the head-tracking servo toward the face center,
// applying a proportional gain with a center deadzone and velocity clamp.
func updateTracking(s *SessionState, face vision.FaceRecord, p Params) {
	if face.FrameWidth <= 0 {
		return
	}
	centerX := (float64(face.BBoxX) + float64(face.BBoxW)/2) / float64(face.FrameWidth)
	errv := centerX - 0.5

	var v float64
	if absF(errv) < p.TrackingDeadzone {
		v = 0
	} else {
		v = -errv * 180 * p.TrackingGain
		if absF(v) < p.TrackingMinVelocity {
			v = sign(v) * p.TrackingMinVelocity
		}
		v = clamp(v, -p.TrackingMaxVelocity, p.TrackingMaxVelocity)
	}
	s.TrackingBase = clamp(s.TrackingBase+v, 0, 180)
}

// idleDrift drifts the tracking base back toward 90 degrees at ≤2°/tick.
func idleDrift(s *SessionState) {
	const idleDriftSpeed = 2.0
	diff := 90 - s.TrackingBase
	if absF(diff) <= idleDriftSpeed {
		s.TrackingBase = 90
		return
	}
	s.TrackingBase += sign(diff) * idleDriftSpeed
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

// startArmWave begins a single up-then-down triangle cycle between
// p.ArmWaveMin and p.ArmWaveMax,.5.
func startArmWave(s *SessionState, p Params) {
	s.ArmWaveActive = true
	s.ArmWavePhase = p.ArmWaveMin
	s.ArmWaveDirection = 1
}

// armWavePosition advances an active wave by one tick and returns the
// current angle; the wave deactivates once it has gone up to ArmWaveMax and
// back down to ArmWaveMin (one full cycle).
func armWavePosition(s *SessionState, p Params) float64 {
	if !s.ArmWaveActive {
		return p.ArmWaveMin
	}
	s.ArmWavePhase += s.ArmWaveDirection * p.ArmWaveSpeed
	if s.ArmWaveDirection > 0 && s.ArmWavePhase >= p.ArmWaveMax {
		s.ArmWavePhase = p.ArmWaveMax
		s.ArmWaveDirection = -1
	} else if s.ArmWaveDirection < 0 && s.ArmWavePhase <= p.ArmWaveMin {
		s.ArmWavePhase = p.ArmWaveMin
		s.ArmWaveActive = false
	}
	return s.ArmWavePhase
}

// advanceShake applies the shake animation's oscillation,.5
// "Shake animation": returns the current additive offset.
func advanceShake(s *SessionState, p Params) float64 {
	s.ShakeOffset += s.ShakeDirection * p.ShakeSpeed
	if absF(s.ShakeOffset) >= p.ShakeRange {
		s.ShakeDirection = -s.ShakeDirection
	}
	return s.ShakeOffset
}

func resetShake(s *SessionState) {
	s.ShakeOffset = 0
	s.ShakeDirection = 1
}

// squareWaveOn reports the 8Hz square-wave flash phase, on for the first
// half of each period.
func squareWaveOn(elapsedSeconds float64, hz float64) bool {
	period := 1.0 / hz
	phase := elapsedSeconds - period*float64(int(elapsedSeconds/period))
	return phase < period/2
}
