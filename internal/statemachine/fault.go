package statemachine

import (
	"time"

	"github.com/fizzball/controller/internal/wire"
)

// tickFault renders FAULT's static 8Hz red flash. Recovery back to INACTIVE is handled by applyGlobalTransitions.
func (m *Machine) tickFault(now time.Time) wire.Command {
	s := &m.session
	on := squareWaveOn(now.Sub(s.StateEntryTime).Seconds(), flashHz)
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
