package statemachine

import (
	"time"

	"github.com/fizzball/controller/internal/wire"
)

// tickCollapse renders COLLAPSE's rainbow visuals and, once the duration has
// elapsed (or skip was requested), transitions to the sampled outcome,
// rendering that state's visuals within the same tick.
func (m *Machine) tickCollapse(now time.Time) wire.Command {
	s := &m.session
	if now.Sub(s.StateEntryTime) >= m.params.CollapseDuration || s.SkipRequested {
		s.SkipRequested = false
		if s.Outcome == OutcomeAlive {
			m.enterState(StateAlive, now)
			return m.tickAliveEntryCommand(now)
		}
		m.enterState(StateDead, now)
		return m.deadVisualsCommand()
	}

	cmd := wire.SafeCommand()
	cmd.ServoTarget = [3]float64{90, 90, 90}
	cmd.RGBMode = wire.RGBRainbow
	cmd.NPMMode = wire.NPMRainbow
	cmd.NPRMode = wire.NPRRainbow
	return cmd
}
