// Package supervisor arbitrates the three panel buttons and the e-stop
// combo, and owns the emergency-stop/fault-stop/reset state machine
// that gates every other subsystem.
package supervisor

import (
	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/actuator"
	"github.com/reeflink/aquarium-controller/internal/ato"
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/input"
	"github.com/reeflink/aquarium-controller/internal/lighting"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const (
	// ComboArmMs is how long Blue must be held before the e-stop combo
	// is armed.
	ComboArmMs = 2_000
	// BlueLongPressMs separates Blue's short-press (ATO
	// reset/cloud/manual-toggle) action from its long-press
	// (silence-alarm) action.
	BlueLongPressMs = 2_000
	// GreenLongPressMs separates Green's short-press (photo mode) action
	// from its long-press (schedule enable/disable) action.
	GreenLongPressMs = 3_000
	// FeedModeDuration is how long feed mode stays active before it
	// auto-exits.
	FeedModeDuration = 600_000
)

// FaultActiveFunc reports whether an over-temperature fault is still
// asserted. ResetEmergencyStop consults it and refuses the reset while
// the fault condition holds.
type FaultActiveFunc func(st *state.ControllerState) bool

// Supervisor owns the emergency-stop/fault latch and dispatches panel
// button gestures to the subsystems they control.
type Supervisor struct {
	gw            *actuator.Gateway
	ato           *ato.Controller
	lighting      *lighting.Controller
	buzzer        hwio.Buzzer
	clk           clock.Clock
	overTempFault FaultActiveFunc

	// armedThisPress ensures one Blue hold arms the combo at most once,
	// even after the combo handler clears ResetArmed mid-hold.
	armedThisPress bool
}

func New(gw *actuator.Gateway, atoCtl *ato.Controller, lightingCtl *lighting.Controller, buzzer hwio.Buzzer, clk clock.Clock, overTempFault FaultActiveFunc) *Supervisor {
	return &Supervisor{
		gw:            gw,
		ato:           atoCtl,
		lighting:      lightingCtl,
		buzzer:        buzzer,
		clk:           clk,
		overTempFault: overTempFault,
	}
}

// TriggerEmergencyStop is the operator-initiated e-stop press.
func (s *Supervisor) TriggerEmergencyStop(st *state.ControllerState) {
	if st.EmergencyStop {
		return
	}
	st.EmergencyStop = true
	log.Error().Msg("emergency stop engaged by operator")
}

// TriggerFaultStop implements tempmonitor.FaultTrigger: the
// temperature-initiated e-stop, identical effect to the operator path
// plus a recorded cause.
func (s *Supervisor) TriggerFaultStop(st *state.ControllerState, reason string) {
	st.EmergencyStop = true
	log.Error().Str("cause", reason).Msg("fault-triggered emergency stop")
}

// ResetEmergencyStop is the Blue+E-stop combo handler. Refused while an
// over-temperature fault condition still holds; refusal emits a distinct
// alert and leaves the latch set.
func (s *Supervisor) ResetEmergencyStop(st *state.ControllerState) bool {
	if s.overTempFault(st) {
		log.Warn().Msg("emergency stop reset refused: over-temperature fault still active")
		hwio.Beep(s.buzzer, st, 5)
		return false
	}
	st.EmergencyStop = false
	log.Info().Msg("emergency stop reset by operator combo")
	hwio.Beep(s.buzzer, st, 1)
	return true
}

// HandleEStop processes one tick's e-stop reading. pressedEdge is true
// only on the tick the (undebounced) line first asserted.
func (s *Supervisor) HandleEStop(st *state.ControllerState, pressedEdge bool) {
	if !pressedEdge {
		return
	}
	blueHeld := st.Buttons["blue"].CurrentState
	if st.ResetArmed && blueHeld {
		s.ResetEmergencyStop(st)
		st.ResetArmed = false
		return
	}
	s.TriggerEmergencyStop(st)
}

// HandleButtons dispatches this tick's debounced button results (from
// input.ReadButtons) to each button's gesture handler. now is the
// tick's monotonic ms reading.
func (s *Supervisor) HandleButtons(st *state.ControllerState, results map[string]input.Result, now uint64) {
	s.handleYellow(st, results["yellow"])
	s.handleBlue(st, results["blue"], now)
	s.handleGreen(st, results["green"])
}

func (s *Supervisor) handleYellow(st *state.ControllerState, r input.Result) {
	if r.Edge == input.Released {
		s.toggleFeedMode(st)
	}
}

func (s *Supervisor) handleBlue(st *state.ControllerState, r input.Result, now uint64) {
	bs := st.Buttons["blue"]
	if bs.CurrentState && !st.ResetArmed && !s.armedThisPress && input.PressDuration(bs, now) >= ComboArmMs {
		st.ResetArmed = true
		s.armedThisPress = true
		log.Info().Msg("blue held: e-stop reset combo armed")
		hwio.Beep(s.buzzer, st, 1)
	}

	if r.Edge != input.Released {
		return
	}
	st.ResetArmed = false
	s.armedThisPress = false

	if r.DurationMs >= BlueLongPressMs {
		s.SilenceAlarm(st)
		return
	}

	switch {
	case st.Ato.TimeoutAlarm || st.Ato.ReservoirAlarm:
		s.ResetATOAlarm(st)
	case st.Lighting.Mode == state.Daylight:
		s.lighting.TriggerManualCloud(st)
	default:
		s.lighting.ToggleLightsManual(st)
	}
}

func (s *Supervisor) handleGreen(st *state.ControllerState, r input.Result) {
	if r.Edge != input.Released {
		return
	}
	if r.DurationMs >= GreenLongPressMs {
		s.toggleScheduleEnabled(st)
		return
	}
	s.TogglePhotoMode(st)
}

// toggleFeedMode flips feed mode and, when entering it, starts the
// auto-exit timer and breaks gyre outlet power (NC wiring: "off" means
// energizing the relay to interrupt the pump).
func (s *Supervisor) toggleFeedMode(st *state.ControllerState) {
	st.FeedModeActive = !st.FeedModeActive
	if st.FeedModeActive {
		st.FeedModeUntilMs = s.clk.NowMs() + FeedModeDuration
		log.Info().Msg("feed mode started")
	} else {
		log.Info().Msg("feed mode ended")
	}
	s.driveGyre(st)
}

// TickFeedMode auto-exits feed mode once its timer elapses. Called once
// per tick from the supervisory loop.
func (s *Supervisor) TickFeedMode(st *state.ControllerState) {
	if !st.FeedModeActive {
		return
	}
	if s.clk.NowMs() >= st.FeedModeUntilMs {
		st.FeedModeActive = false
		log.Info().Msg("feed mode auto-exited")
		s.driveGyre(st)
	}
}

// driveGyre commands the gyre outlet: off (interrupted) during feed
// mode, on otherwise.
func (s *Supervisor) driveGyre(st *state.ControllerState) {
	on := !st.FeedModeActive
	if err := s.gw.Set(hwio.GyreOutlet, on, st.EmergencyStop); err != nil {
		log.Error().Err(err).Msg("failed to drive gyre outlet")
	}
}

// TogglePhotoMode flips photo mode and dispatches the matching lighting
// preset.
func (s *Supervisor) TogglePhotoMode(st *state.ControllerState) {
	st.PhotoModeActive = !st.PhotoModeActive
	if st.PhotoModeActive {
		s.lighting.LightsPhotoMode(st)
		log.Info().Msg("photo mode engaged")
	} else {
		s.lighting.LightsNormalMode(st)
		log.Info().Msg("photo mode ended")
	}
}

func (s *Supervisor) toggleScheduleEnabled(st *state.ControllerState) {
	st.Lighting.ScheduleEnabled = !st.Lighting.ScheduleEnabled
	log.Info().Bool("enabled", st.Lighting.ScheduleEnabled).Msg("lighting schedule toggled")
}

// ResetATOAlarm clears whichever ATO alarm is active, via the Blue
// short-press priority gesture.
func (s *Supervisor) ResetATOAlarm(st *state.ControllerState) {
	s.ato.Reset(st)
	log.Info().Msg("ato alarm reset by operator")
}

// SilenceAlarm sets AlarmSilenced, which suppresses every buzzer
// pattern from then on; nothing clears it while the process runs.
func (s *Supervisor) SilenceAlarm(st *state.ControllerState) {
	st.AlarmSilenced = true
	log.Info().Msg("alarm silenced")
}
