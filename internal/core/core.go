// Package core is the supervisory loop: a single-threaded, cooperative
// superloop over a monotonic millisecond clock, wrapping one Tick()
// pass in a context-cancelable ticker goroutine. Every tick runs a fixed
// nine-step order, so actuators always observe a fault latched earlier
// in the same tick.
package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/actuator"
	"github.com/reeflink/aquarium-controller/internal/ato"
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/eventlog"
	"github.com/reeflink/aquarium-controller/internal/heater"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/input"
	"github.com/reeflink/aquarium-controller/internal/lighting"
	"github.com/reeflink/aquarium-controller/internal/state"
	"github.com/reeflink/aquarium-controller/internal/supervisor"
	"github.com/reeflink/aquarium-controller/internal/tempmonitor"
	"github.com/reeflink/aquarium-controller/internal/telemetry"
)

// Hardware bundles every external collaborator the core logic depends
// on. All are dependency-injected; no subsystem reaches for os/exec or
// os directly.
type Hardware struct {
	Expander                hwio.Expander
	EStop                   hwio.EStop
	SumpProbe, DisplayProbe hwio.TempProbe
	RTC                     hwio.RTC
	IR                      hwio.IREmitter
	Buzzer                  hwio.Buzzer
	Relays                  hwio.RelayBank
}

// Polarities is the runtime polarity config for the three float
// switches and the shared button/e-stop lines.
type Polarities struct {
	FloatLow, FloatHigh, FloatReservoirEmpty state.Polarity
	Buttons, EStop                           state.Polarity
}

// Controller owns the ControllerState aggregate and every subsystem
// controller, wiring them together into the single data flow the
// supervisory loop drives each tick.
type Controller struct {
	st *state.ControllerState

	gw        *actuator.Gateway
	temp      *tempmonitor.Monitor
	heaterCtl *heater.Controller
	atoCtl    *ato.Controller
	lightCtl  *lighting.Controller
	super     *supervisor.Supervisor

	hw  Hardware
	pol Polarities
	clk clock.Clock
	log *eventlog.Log

	estopReader input.EStopReader
	wasOverTemp bool

	prevEmergencyStop  bool
	prevTimeoutAlarm   bool
	prevReservoirAlarm bool
}

// New constructs the controller, runs lighting's boot-time mode
// selection, and wires every subsystem against one shared
// ControllerState.
func New(hw Hardware, pol Polarities, clk clock.Clock, elog *eventlog.Log) *Controller {
	st := state.New()
	gw := actuator.New(hw.Relays)
	atoCtl := ato.New(gw, clk, hw.Buzzer)
	lightCtl := lighting.New(hw.IR, hw.RTC, clk)
	heaterCtl := heater.New(gw)
	tempMon := tempmonitor.New(hw.SumpProbe, hw.DisplayProbe, hw.Buzzer, clk)

	c := &Controller{
		st:        st,
		gw:        gw,
		temp:      tempMon,
		heaterCtl: heaterCtl,
		atoCtl:    atoCtl,
		lightCtl:  lightCtl,
		hw:        hw,
		pol:       pol,
		clk:       clk,
		log:       elog,
	}
	c.super = supervisor.New(gw, atoCtl, lightCtl, hw.Buzzer, clk, func(st *state.ControllerState) bool {
		return tempmonitor.OverTempFaultActive(st)
	})

	lightCtl.SelectBootMode(st)
	return c
}

// State exposes the live aggregate for read-only consumers (the audit
// CLI, telemetry) via its own Snapshot/lock methods.
func (c *Controller) State() *state.ControllerState { return c.st }

// Gateway exposes the actuator gateway so the shutdown path can
// de-energize every relay on exit.
func (c *Controller) Gateway() *actuator.Gateway { return c.gw }

// Run drives the tick loop until ctx is canceled, at the configured
// interval.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("supervisory loop shutting down")
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one evaluation cycle. The nine-step order is fixed: fault
// detection runs before heater and ATO control so a latch set this tick
// masks the actuators this same tick.
func (c *Controller) Tick() {
	c.st.Lock()
	defer c.st.Unlock()

	if c.log != nil {
		c.log.Tick()
	}
	now := c.clk.NowMs()

	// 1. read e-stop and panel buttons
	_, pressedEdge, err := c.estopReader.ReadEStop(c.hw.EStop)
	if err != nil {
		log.Error().Err(err).Msg("e-stop read failed")
	}
	buttons := input.ReadButtons(c.hw.Expander, c.st, c.clk, c.pol.Buttons)

	// 2. handle button actions
	c.super.HandleEStop(c.st, pressedEdge)
	c.super.HandleButtons(c.st, buttons, now)
	c.super.TickFeedMode(c.st)

	// 3. read temperatures
	c.temp.ReadAll(c.st)

	// 4. check differential
	c.temp.CheckDifferential(c.st)

	// 5. check over-temp -> possibly latch fault
	c.wasOverTemp = c.temp.CheckOverTemp(c.st, c.wasOverTemp, c.super)

	// 6. control heaters
	c.heaterCtl.Evaluate(c.st)

	// 7. handle ATO
	atoInputs := c.readATOInputs()
	c.atoCtl.Evaluate(c.st, atoInputs)

	// 8. handle lighting schedule
	c.lightCtl.HandleSchedule(c.st)

	// 9. handle clouds
	c.lightCtl.HandleClouds(c.st)

	if c.log != nil {
		c.recordEvents(now)
	}
	telemetry.Report(c.st.SnapshotLocked(), now)
}

func (c *Controller) readATOInputs() ato.Inputs {
	low, err := c.hw.Expander.Read(hwio.FloatLow)
	if err != nil {
		log.Error().Err(err).Msg("failed to read low float switch")
	}
	high, err := c.hw.Expander.Read(hwio.FloatHigh)
	if err != nil {
		log.Error().Err(err).Msg("failed to read high float switch")
	}
	empty, err := c.hw.Expander.Read(hwio.FloatReservoirEmpty)
	if err != nil {
		log.Error().Err(err).Msg("failed to read reservoir-empty float switch")
	}
	return ato.Inputs{
		LowTriggered:   c.pol.FloatLow.Triggered(low),
		HighTriggered:  c.pol.FloatHigh.Triggered(high),
		ReservoirEmpty: c.pol.FloatReservoirEmpty.Triggered(empty),
	}
}

// recordEvents logs each latch's rising edge only, not its continuous
// state, so the event log reads as a transition history rather than a
// per-tick snapshot dump.
func (c *Controller) recordEvents(now uint64) {
	if c.st.EmergencyStop && !c.prevEmergencyStop {
		c.log.Record("emergency_stop", now, nil)
	}
	if c.st.Ato.TimeoutAlarm && !c.prevTimeoutAlarm {
		c.log.Record("ato_timeout", now, nil)
	}
	if c.st.Ato.ReservoirAlarm && !c.prevReservoirAlarm {
		c.log.Record("ato_reservoir_empty", now, nil)
	}
	c.prevEmergencyStop = c.st.EmergencyStop
	c.prevTimeoutAlarm = c.st.Ato.TimeoutAlarm
	c.prevReservoirAlarm = c.st.Ato.ReservoirAlarm
}
