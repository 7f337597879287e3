// Package tempmonitor reads the two 1-wire probes, validates them,
// computes the sump/display differential alert, and detects the
// over-temperature fault that latches emergency stop.
package tempmonitor

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const (
	validMinF = -100.0
	validMaxF = 150.0

	// TempDifferentialAlert is the sump/display divergence that triggers
	// an advisory warning.
	TempDifferentialAlert = 1.0
	// TempEmergencyHigh is the over-temperature fault threshold.
	TempEmergencyHigh = 82.0

	diffAlertThrottle = 60 * time.Second
)

// FaultTrigger is the mode supervisor's fault-latching entry point. A
// narrow interface avoids an import cycle between tempmonitor and
// supervisor.
type FaultTrigger interface {
	TriggerFaultStop(st *state.ControllerState, reason string)
}

// Monitor owns the two temperature probes and the last-valid readings.
type Monitor struct {
	sump    hwio.TempProbe
	display hwio.TempProbe
	buzzer  hwio.Buzzer
	clk     clock.Clock

	// diffAlerted distinguishes "never alerted" from an alert recorded at
	// monotonic time zero, so the throttle window works from the first
	// tick onward.
	diffAlerted bool
}

func New(sump, display hwio.TempProbe, buzzer hwio.Buzzer, clk clock.Clock) *Monitor {
	return &Monitor{sump: sump, display: display, buzzer: buzzer, clk: clk}
}

// ReadAll requests a conversion from each probe and updates st.Temp,
// preserving the last good value (flagged stale) when a reading falls
// outside the valid window.
func (m *Monitor) ReadAll(st *state.ControllerState) {
	m.readOne(m.sump, &st.Temp.SumpF, &st.Temp.SumpStale, "sump")
	m.readOne(m.display, &st.Temp.DisplayF, &st.Temp.DisplayStale, "display")
}

func (m *Monitor) readOne(probe hwio.TempProbe, value *float64, stale *bool, label string) {
	f, err := probe.ReadF()
	if err != nil {
		log.Warn().Err(err).Str("probe", label).Msg("sensor read failed, retaining last good value")
		*stale = true
		return
	}
	if f < validMinF || f > validMaxF {
		log.Warn().Str("probe", label).Float64("reading", f).Msg("sensor reading out of valid range, retaining last good value")
		*stale = true
		return
	}
	*value = f
	*stale = false
}

// CheckDifferential emits a throttled advisory when the sump/display gap
// exceeds TempDifferentialAlert.
func (m *Monitor) CheckDifferential(st *state.ControllerState) {
	if st.Temp.SumpStale || st.Temp.DisplayStale {
		return
	}
	delta := st.Temp.SumpF - st.Temp.DisplayF
	if delta < 0 {
		delta = -delta
	}
	if delta <= TempDifferentialAlert {
		return
	}

	now := m.clk.NowMs()
	if m.diffAlerted && now-st.Temp.LastDiffAlertMs < uint64(diffAlertThrottle.Milliseconds()) {
		return
	}

	m.diffAlerted = true
	st.Temp.LastDiffAlertMs = now
	log.Warn().Float64("sump", st.Temp.SumpF).Float64("display", st.Temp.DisplayF).Msg("temperature differential alert")
	hwio.Beep(m.buzzer, st, 2)
}

// OverTempFaultActive reports whether either probe, when not stale,
// reads at or above TempEmergencyHigh.
func OverTempFaultActive(st *state.ControllerState) bool {
	if !st.Temp.SumpStale && st.Temp.SumpF >= TempEmergencyHigh {
		return true
	}
	if !st.Temp.DisplayStale && st.Temp.DisplayF >= TempEmergencyHigh {
		return true
	}
	return false
}

// CheckOverTemp latches a fault stop on the false->true transition, so
// a persisting over-temp condition fires the fault exactly once.
func (m *Monitor) CheckOverTemp(st *state.ControllerState, wasFault bool, faultTrigger FaultTrigger) (isFault bool) {
	isFault = OverTempFaultActive(st)
	if isFault && !wasFault && !st.EmergencyStop {
		log.Error().Float64("sump", st.Temp.SumpF).Float64("display", st.Temp.DisplayF).Msg("over-temperature fault")
		faultTrigger.TriggerFaultStop(st, "over_temperature")
	}
	return isFault
}
