package statemachine

import (
	"time"

	"github.com/fizzball/controller/internal/metrics"
	"github.com/fizzball/controller/internal/vision"
	"github.com/fizzball/controller/internal/wire"
)

// tickAlive implements the ALIVE state's priority-ordered sub-behaviors:
// ENTRY, then limit-triggered dispense/reject handling, then DISPENSING,
// DISPENSE_REJECT, DETECTED, and finally IDLE.
func (m *Machine) tickAlive(face vision.FaceRecord, telemetry wire.Telemetry, now time.Time) wire.Command {
	s := &m.session

	if now.Sub(s.StateEntryTime) < m.params.AliveEntryDuration {
		s.AliveBehavior = AliveEntry
		return m.tickAliveEntryCommand(now)
	}

	m.applyLimitTriggeredLogic(face, telemetry, now)

	if !s.DispenseStartTime.IsZero() && now.Sub(s.DispenseStartTime) < m.params.DispenseFlashDuration {
		s.AliveBehavior = AliveDispensing
		return m.aliveDispensingCommand(now)
	}
	if !s.RejectStartTime.IsZero() && now.Sub(s.RejectStartTime) < m.params.RejectFlashDuration {
		s.AliveBehavior = AliveDispenseReject
		return m.aliveRejectCommand(now)
	}
	if face.Detected && trackableFace(face, m.params.MinFaceWidthRatio) {
		s.AliveBehavior = AliveDetected
		return m.aliveDetectedCommand(face, now)
	}
	s.AliveBehavior = AliveIdle
	return m.aliveIdleCommand(now)
}

// applyLimitTriggeredLogic enforces "at most one dispense per door-open
// session": the first sustained facing hold against the limit switch starts
// a dispense; any further trip within the same session is rejected.
func (m *Machine) applyLimitTriggeredLogic(face vision.FaceRecord, telemetry wire.Telemetry, now time.Time) {
	s := &m.session
	if !telemetry.LimitTriggered {
		s.LimitHoldStart = time.Time{}
		return
	}
	if s.HasDispensed {
		s.RejectStartTime = now
		resetShake(s)
		metrics.IncReject()
		return
	}
	if !(face.Detected && face.NumFacing > 0) {
		s.LimitHoldStart = time.Time{}
		return
	}
	if s.LimitHoldStart.IsZero() {
		s.LimitHoldStart = now
	}
	if now.Sub(s.LimitHoldStart) >= m.params.DispenseHoldDuration {
		s.HasDispensed = true
		s.DispenseStartTime = now
		s.LimitHoldStart = time.Time{}
		metrics.IncDispense()
	}
}

func (m *Machine) tickAliveEntryCommand(now time.Time) wire.Command {
	s := &m.session
	armAngle := armWavePosition(s, m.params)
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{s.TrackingBase, armAngle, 90}
	cmd.NPMMode = wire.NPMEyeOpen
	cmd.NPMPrimary = colorGreen
	cmd.NPRMode = wire.NPRSolid
	cmd.NPRPrimary = colorGreen
	cmd.RGBMode = wire.RGBSolid
	cmd.RGBPrimary = colorGreen
	return cmd
}

func (m *Machine) aliveDispensingCommand(now time.Time) wire.Command {
	s := &m.session
	on := squareWaveOn(now.Sub(s.DispenseStartTime).Seconds(), flashHz)
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{s.TrackingBase, 90, 90}
	cmd.ValveOpen = now.Sub(s.DispenseStartTime) < m.params.DispenseDuration
	cmd.NPMMode = wire.NPMEyeOpen
	if on {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorAqua, colorAqua, colorAqua
		cmd.NPRMode, cmd.RGBMode = wire.NPRSolid, wire.RGBSolid
	} else {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorOff, colorOff, colorOff
		cmd.NPRMode, cmd.RGBMode = wire.NPROff, wire.RGBSolid
	}
	return cmd
}

func (m *Machine) aliveRejectCommand(now time.Time) wire.Command {
	s := &m.session
	offset := advanceShake(s, m.params)
	on := squareWaveOn(now.Sub(s.RejectStartTime).Seconds(), flashHz)
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{clamp(s.TrackingBase+offset, 0, 180), 90, 90}
	cmd.NPMMode = wire.NPMX
	if on {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorRed, colorRed, colorRed
		cmd.NPRMode, cmd.RGBMode = wire.NPRSolid, wire.RGBSolid
	} else {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorOff, colorOff, colorOff
		cmd.NPRMode, cmd.RGBMode = wire.NPROff, wire.RGBSolid
	}
	return cmd
}

func (m *Machine) aliveDetectedCommand(face vision.FaceRecord, now time.Time) wire.Command {
	s := &m.session
	updateTracking(s, face, m.params)

	if !s.ArmWaveActive && now.Sub(s.LastWaveEndTime) >= m.params.ArmWaveInterval {
		startArmWave(s, m.params)
	}
	armAngle := float64(90)
	if s.ArmWaveActive {
		armAngle = armWavePosition(s, m.params)
		if !s.ArmWaveActive {
			s.LastWaveEndTime = now
		}
	}

	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{s.TrackingBase, armAngle, 90}
	cmd.NPMMode = wire.NPMEyeOpen
	cmd.NPRMode = wire.NPRSolid
	cmd.RGBMode = wire.RGBSolid
	if face.NumFacing > 0 {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorGreen, colorGreen, colorGreen
	} else {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorYellowGrn, colorYellowGrn, colorYellowGrn
	}
	return cmd
}

func (m *Machine) aliveIdleCommand(now time.Time) wire.Command {
	s := &m.session
	idleDrift(s)
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{s.TrackingBase, 90, 90}
	cmd.NPMMode = wire.NPMEyeClosed
	cmd.NPMPrimary = colorDimAqua
	cmd.NPRMode = wire.NPRBreathe
	cmd.NPRPrimary = colorAqua
	cmd.RGBMode = wire.RGBSolid
	cmd.RGBPrimary = colorDimAqua
	return cmd
}
