package hwio

import (
	"time"

	"github.com/reeflink/aquarium-controller/internal/pinctrl"
	"github.com/reeflink/aquarium-controller/internal/state"
)

// PWMBuzzer drives a piezo buzzer pin through pinctrl, toggling it at
// roughly freqHz for dur. Tone shaping (duty cycle, envelope) is a
// hardware concern, not something this wrapper models.
type PWMBuzzer struct {
	Pin int
}

func (b *PWMBuzzer) Tone(freqHz int, dur time.Duration) error {
	if freqHz <= 0 {
		return nil
	}
	period := time.Second / time.Duration(freqHz)
	half := period / 2
	cycles := int(dur / period)

	for i := 0; i < cycles; i++ {
		if err := pinctrl.SetPin(b.Pin, "op", "pn", "dh"); err != nil {
			return err
		}
		time.Sleep(half)
		if err := pinctrl.SetPin(b.Pin, "op", "pn", "dl"); err != nil {
			return err
		}
		time.Sleep(half)
	}
	return nil
}

// Beep sounds n short tones, each separated by a gap: 2 for a
// differential alert, 3 for reservoir empty, 5 for an ATO timeout, 1
// for operator confirmations. Suppressed entirely while st.AlarmSilenced
// is set.
func Beep(b Buzzer, st *state.ControllerState, n int) {
	if st.AlarmSilenced {
		return
	}
	for i := 0; i < n; i++ {
		b.Tone(2000, 120*time.Millisecond)
		if i < n-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
}
