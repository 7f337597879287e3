package hwio

import (
	"fmt"

	"github.com/reeflink/aquarium-controller/internal/pinctrl"
)

// RelayPin wires one logical relay to a physical GPIO pin plus the
// polarity needed to energize it, and (for the gyre outlet) the
// normally-closed wiring inversion.
type RelayPin struct {
	Number     int
	ActiveHigh bool
	// InvertForNC is set for relays wired normally-closed, where
	// "requested = on" must mean "device receiving power" even though the
	// relay coil itself is driven the opposite way.
	InvertForNC bool
}

// PinctrlRelayBank drives the relay board through the pinctrl CLI
// wrapper.
type PinctrlRelayBank struct {
	Pins map[RelayID]RelayPin
}

func NewPinctrlRelayBank(pins map[RelayID]RelayPin) *PinctrlRelayBank {
	return &PinctrlRelayBank{Pins: pins}
}

func (r *PinctrlRelayBank) Set(id RelayID, on bool) error {
	pin, ok := r.Pins[id]
	if !ok {
		return fmt.Errorf("unknown relay id: %s", id)
	}

	energize := on
	if pin.InvertForNC {
		energize = !on
	}

	drive := "dl"
	if pin.ActiveHigh == energize {
		drive = "dh"
	}
	return pinctrl.SetPin(pin.Number, "op", "pn", drive)
}

func (r *PinctrlRelayBank) Get(id RelayID) (bool, error) {
	pin, ok := r.Pins[id]
	if !ok {
		return false, fmt.Errorf("unknown relay id: %s", id)
	}
	level, err := pinctrl.ReadLevel(pin.Number)
	if err != nil {
		return false, err
	}
	energized := pin.ActiveHigh == level
	if pin.InvertForNC {
		return !energized, nil
	}
	return energized, nil
}
