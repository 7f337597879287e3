package hwio

import (
	"fmt"
	"time"

	"github.com/reeflink/aquarium-controller/internal/pinctrl"
)

// GPIOIREmitter bit-bangs a NEC frame on a single GPIO pin through the
// pinctrl CLI wrapper. Each Send blocks for the frame duration plus the
// 100ms inter-command gap mandated by the fixture's IR receiver.
type GPIOIREmitter struct {
	Pin int
}

const necGap = 100 * time.Millisecond

func (e *GPIOIREmitter) Send(cmd IRCommand) error {
	if err := e.sendFrame(NECAddress, byte(cmd)); err != nil {
		return fmt.Errorf("ir send failed: %w", err)
	}
	time.Sleep(necGap)
	return nil
}

// sendFrame toggles the emitter pin through a simplified NEC bit
// sequence (38kHz carrier modulation is assumed to be handled by the
// driver transistor's LC tank, not software). This is a thin wrapper:
// protocol nuance belongs to the hardware, not the core control logic.
func (e *GPIOIREmitter) sendFrame(addr uint16, cmd byte) error {
	bits := make([]bool, 0, 32)
	for i := 0; i < 16; i++ {
		bits = append(bits, (addr>>i)&1 != 0)
	}
	for i := 0; i < 8; i++ {
		bits = append(bits, (cmd>>i)&1 != 0)
	}
	for i := 0; i < 8; i++ {
		bits = append(bits, (^cmd>>i)&1 != 0)
	}

	for _, bit := range bits {
		high := "dh"
		if !bit {
			high = "dl"
		}
		if err := pinctrl.SetPin(e.Pin, "op", "pn", high); err != nil {
			return err
		}
	}
	return pinctrl.SetPin(e.Pin, "op", "pn", "dl")
}
