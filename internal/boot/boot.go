// Package boot wires the concrete hwio collaborators from a loaded
// config.Config. Shared by cmd/aquarium-controller and cmd/auditcli so
// the two entry points build identical hardware from identical config.
package boot

import (
	"github.com/reeflink/aquarium-controller/internal/config"
	"github.com/reeflink/aquarium-controller/internal/core"
	"github.com/reeflink/aquarium-controller/internal/hwio"
)

// Hardware constructs every concrete hwio collaborator named in cfg.Pins
// and cfg.Expander.
func Hardware(cfg config.Config) (core.Hardware, error) {
	relays := hwio.NewPinctrlRelayBank(map[hwio.RelayID]hwio.RelayPin{
		hwio.HeaterPrimary: {Number: *cfg.Pins.HeaterPrimaryRelay, ActiveHigh: cfg.RelayWire.HeaterPrimaryActiveHigh},
		hwio.HeaterBackup:  {Number: *cfg.Pins.HeaterBackupRelay, ActiveHigh: cfg.RelayWire.HeaterBackupActiveHigh},
		hwio.AtoPump:       {Number: *cfg.Pins.AtoPumpRelay, ActiveHigh: cfg.RelayWire.AtoPumpActiveHigh},
		hwio.GyreOutlet:    {Number: *cfg.Pins.GyreOutletRelay, ActiveHigh: cfg.RelayWire.GyreOutletActiveHigh, InvertForNC: cfg.RelayWire.GyreWiredNC},
	})

	expander, err := hwio.NewI2CExpander(cfg.Expander.I2CAddress, cfg.Expander.I2CBus, map[hwio.ExpanderInput]uint{
		hwio.FloatLow:            cfg.Expander.BitFloatLow,
		hwio.FloatHigh:           cfg.Expander.BitFloatHigh,
		hwio.FloatReservoirEmpty: cfg.Expander.BitFloatReservoirEmpty,
		hwio.ButtonYellow:        cfg.Expander.BitButtonYellow,
		hwio.ButtonBlue:          cfg.Expander.BitButtonBlue,
		hwio.ButtonGreen:         cfg.Expander.BitButtonGreen,
	})
	if err != nil {
		return core.Hardware{}, err
	}

	return core.Hardware{
		Expander:     expander,
		EStop:        &hwio.PinctrlEStop{Pin: *cfg.Pins.EStopGPIO, Polarity: cfg.Polarity.EStop},
		SumpProbe:    &hwio.OneWireProbe{DevicePath: "/sys/bus/w1/devices/" + *cfg.Pins.SumpProbeOneWireID},
		DisplayProbe: &hwio.OneWireProbe{DevicePath: "/sys/bus/w1/devices/" + *cfg.Pins.DisplayProbeOneWireID},
		RTC:          hwio.SystemRTC{},
		IR:           &hwio.GPIOIREmitter{Pin: *cfg.Pins.IREmitterPin},
		Buzzer:       &hwio.PWMBuzzer{Pin: *cfg.Pins.BuzzerPin},
		Relays:       relays,
	}, nil
}

// Polarities translates config.Polarities into core.Polarities.
func Polarities(cfg config.Config) core.Polarities {
	return core.Polarities{
		FloatLow:            cfg.Polarity.FloatLow,
		FloatHigh:           cfg.Polarity.FloatHigh,
		FloatReservoirEmpty: cfg.Polarity.FloatReservoirEmpty,
		Buttons:             cfg.Polarity.Buttons,
		EStop:               cfg.Polarity.EStop,
	}
}
