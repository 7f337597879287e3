// Package ato implements the automatic top-off float-switch state
// machine, with reservoir-empty priority, a post-run cooldown, a
// runaway-fill timeout latch, and a minimum on-time to suppress chatter
// at the high float.
package ato

import (
	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/actuator"
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const (
	// ATOTimeout is the maximum continuous pump runtime before the
	// controller latches a runaway-fill alarm.
	ATOTimeout = 300_000
	// ATOCooldown is the minimum gap between a pump OFF edge and the next
	// eligible ON edge.
	ATOCooldown = 60_000
	// ATOMinRuntime suppresses high-float chatter: once started, the pump
	// runs at least this long before a high-float stop is honored.
	ATOMinRuntime = 2_000
)

// Inputs is this tick's raw, already-depolarized float-switch readings.
type Inputs struct {
	LowTriggered   bool
	HighTriggered  bool
	ReservoirEmpty bool
}

// Controller owns the fill state machine and the reservoir-alarm edge
// detector.
type Controller struct {
	gw            *actuator.Gateway
	clk           clock.Clock
	prevReservoir bool
	buzzer        hwio.Buzzer
}

func New(gw *actuator.Gateway, clk clock.Clock, buzzer hwio.Buzzer) *Controller {
	return &Controller{gw: gw, clk: clk, buzzer: buzzer}
}

// Evaluate runs one tick of the fill state machine and drives the pump
// relay through the actuator gateway.
func (c *Controller) Evaluate(st *state.ControllerState, in Inputs) {
	now := c.clk.NowMs()

	if c.reservoirEdge(st, in) {
		c.drivePump(st)
		return
	}

	if st.Ato.ReservoirAlarm {
		c.drivePump(st)
		return
	}

	if !st.Ato.Running && now-st.Ato.LastRunEndMs < ATOCooldown && st.Ato.LastRunEndMs != 0 {
		c.drivePump(st)
		return
	}

	if st.Ato.TimeoutAlarm {
		st.Ato.Running = false
		c.drivePump(st)
		return
	}

	switch {
	case in.LowTriggered:
		if !st.Ato.Running {
			st.Ato.Running = true
			st.Ato.StartMs = now
			log.Info().Msg("ato fill started")
		} else if now-st.Ato.StartMs > ATOTimeout {
			st.Ato.Running = false
			st.Ato.TimeoutAlarm = true
			log.Error().Msg("ato timeout: runaway fill suspected")
			hwio.Beep(c.buzzer, st, 5)
		}
	case in.HighTriggered && st.Ato.Running && now-st.Ato.StartMs >= ATOMinRuntime:
		st.Ato.Running = false
		st.Ato.LastRunEndMs = now
		log.Info().Msg("ato fill stopped at high float")
	}

	c.drivePump(st)
}

// reservoirEdge handles the reservoir-empty alarm's rising/falling edges
// and reports whether this tick should stop processing further (rising
// edge only; falling edge falls through to normal evaluation). prev
// starts false, so a reservoir already empty on the first read latches
// the alarm before any fill can start.
func (c *Controller) reservoirEdge(st *state.ControllerState, in Inputs) bool {
	prev := c.prevReservoir
	c.prevReservoir = in.ReservoirEmpty

	switch {
	case in.ReservoirEmpty && !prev:
		st.Ato.ReservoirAlarm = true
		if st.Ato.Running {
			st.Ato.Running = false
		}
		log.Error().Msg("ato reservoir empty")
		hwio.Beep(c.buzzer, st, 3)
		return true
	case !in.ReservoirEmpty && prev && st.Ato.ReservoirAlarm:
		st.Ato.ReservoirAlarm = false
		st.Ato.LastRunEndMs = 0
		log.Info().Msg("ato reservoir refilled, cooldown bypassed")
	}
	return false
}

// Reset is the operator's alarm-clear action: both alarms drop, the
// fill/cooldown timers reset, and one confirmation beep sounds.
func (c *Controller) Reset(st *state.ControllerState) {
	st.Ato.TimeoutAlarm = false
	st.Ato.ReservoirAlarm = false
	st.Ato.StartMs = 0
	st.Ato.LastRunEndMs = c.clk.NowMs()
	hwio.Beep(c.buzzer, st, 1)
}

func (c *Controller) drivePump(st *state.ControllerState) {
	on := st.Ato.Running && !st.Ato.ReservoirAlarm
	st.Ato.Running = on
	if err := c.gw.Set(hwio.AtoPump, on, st.EmergencyStop); err != nil {
		log.Error().Err(err).Msg("failed to drive ato pump relay")
	}
}
