package statemachine

import (
	"time"

	"github.com/fizzball/controller/internal/wire"
)

// tickDead implements DEAD's sub-behaviors. ENTRY shares NORMAL's visuals; a limit trip while NORMAL
// starts a reject flash; DEAD never dispenses.
func (m *Machine) tickDead(telemetry wire.Telemetry, now time.Time) wire.Command {
	s := &m.session

	if now.Sub(s.StateEntryTime) < m.params.DeadEntryDuration {
		s.DeadBehavior = DeadEntry
		return m.deadVisualsCommand()
	}
	if !s.RejectStartTime.IsZero() && now.Sub(s.RejectStartTime) < m.params.RejectFlashDuration {
		s.DeadBehavior = DeadReject
		return m.deadRejectCommand(now)
	}
	if telemetry.LimitTriggered {
		s.RejectStartTime = now
		resetShake(s)
		s.DeadBehavior = DeadReject
		return m.deadRejectCommand(now)
	}
	s.DeadBehavior = DeadNormal
	return m.deadVisualsCommand()
}

// deadVisualsCommand renders DEAD's static "NORMAL" visuals, reused as-is
// for the ENTRY sub-behavior.
func (m *Machine) deadVisualsCommand() wire.Command {
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{90, 90, 90}
	cmd.NPMMode = wire.NPMX
	cmd.NPMPrimary = colorRed
	cmd.NPRMode = wire.NPRSolid
	cmd.NPRPrimary = colorRed
	cmd.RGBMode = wire.RGBSolid
	cmd.RGBPrimary = colorDimRed
	cmd.MatrixLeft = wire.MatrixX
	cmd.MatrixRight = wire.MatrixX
	return cmd
}

func (m *Machine) deadRejectCommand(now time.Time) wire.Command {
	s := &m.session
	on := squareWaveOn(now.Sub(s.RejectStartTime).Seconds(), flashHz)
	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{90, 90, 90}
	cmd.NPMMode = wire.NPMX
	cmd.MatrixLeft = wire.MatrixX
	cmd.MatrixRight = wire.MatrixX
	if on {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorRed, colorRed, colorRed
		cmd.NPRMode, cmd.RGBMode = wire.NPRSolid, wire.RGBSolid
	} else {
		cmd.NPMPrimary, cmd.NPRPrimary, cmd.RGBPrimary = colorOff, colorOff, colorOff
		cmd.NPRMode, cmd.RGBMode = wire.NPROff, wire.RGBSolid
	}
	return cmd
}
