// Package heater applies hysteresis control to the primary sump heater
// off the sump probe reading. The backup heater outlet is wired but
// always commanded off: there is no second trusted sensor to justify
// auto-failover.
package heater

import (
	"github.com/rs/zerolog/log"

	"github.com/reeflink/aquarium-controller/internal/actuator"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const (
	// TargetTempF is the sump setpoint the hysteresis band centers on.
	TargetTempF = 78.0
	// HysteresisF is the +/- band around TargetTempF.
	HysteresisF = 0.5
)

// Controller drives the primary and backup heater relays.
type Controller struct {
	gw *actuator.Gateway
}

func New(gw *actuator.Gateway) *Controller {
	return &Controller{gw: gw}
}

// Evaluate applies hysteresis to the commanded primary-heater state and
// writes both heater relays through the actuator gateway. It must run
// after temperature readings are refreshed for this tick.
func (c *Controller) Evaluate(st *state.ControllerState) {
	switch {
	case st.EmergencyStop:
		st.Heater.PrimaryOn = false
	case st.Temp.SumpStale:
		// Stale sump reading: fail safe, heater stays off until a good
		// reading returns.
		if st.Heater.PrimaryOn {
			log.Warn().Msg("sump reading stale, forcing heater off")
		}
		st.Heater.PrimaryOn = false
	case st.Heater.PrimaryOn && st.Temp.SumpF > TargetTempF+HysteresisF:
		st.Heater.PrimaryOn = false
	case !st.Heater.PrimaryOn && st.Temp.SumpF < TargetTempF-HysteresisF:
		st.Heater.PrimaryOn = true
	}

	st.Heater.BackupOn = false

	if err := c.gw.Set(hwio.HeaterPrimary, st.Heater.PrimaryOn, st.EmergencyStop); err != nil {
		log.Error().Err(err).Msg("failed to drive primary heater relay")
	}
	if err := c.gw.Set(hwio.HeaterBackup, st.Heater.BackupOn, st.EmergencyStop); err != nil {
		log.Error().Err(err).Msg("failed to drive backup heater relay")
	}
}
