package hwio

import (
	"github.com/reeflink/aquarium-controller/internal/pinctrl"
	"github.com/reeflink/aquarium-controller/internal/state"
)

// PinctrlEStop reads the dedicated emergency-stop GPIO line directly
// (not through the shared IO-expander), so it can be sampled every tick
// without the expander's debounce window.
type PinctrlEStop struct {
	Pin      int
	Polarity state.Polarity
}

func (e *PinctrlEStop) Read() (bool, error) {
	level, err := pinctrl.ReadLevel(e.Pin)
	if err != nil {
		return false, err
	}
	return e.Polarity.Triggered(level), nil
}
