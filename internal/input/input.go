// Package input implements debounce and edge/duration classification for
// the three panel buttons, plus the dedicated undebounced emergency-stop
// read.
package input

import (
	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

const debounceWindowMs = 50

// Edge classifies a button transition observed this tick.
type Edge int

const (
	NoEdge Edge = iota
	Pressed
	Released
)

// Sample debounces one raw expander reading and reports the edge that
// output produced, plus the press duration when Released.
func Sample(bs *state.ButtonState, raw bool, now uint64) (edge Edge, pressDurationMs uint64) {
	if raw != bs.LastReading {
		bs.LastReading = raw
		bs.LastChangeMs = now
	}

	if raw == bs.CurrentState {
		return NoEdge, 0
	}
	if now-bs.LastChangeMs <= debounceWindowMs {
		return NoEdge, 0
	}

	bs.CurrentState = raw
	if raw {
		bs.PressedAtMs = now
		return Pressed, 0
	}
	return Released, now - bs.PressedAtMs
}

// Result is one button's classification for this tick: the edge, and
// (only meaningful on Released) how long the press lasted.
type Result struct {
	Edge       Edge
	DurationMs uint64
}

// ReadButtons samples all three panel buttons off the expander and
// updates their debounced state, returning each one's edge (and, on
// release, press duration) this tick. polarity maps the expander's raw
// level to "pressed", since input wiring polarity is a runtime config
// value rather than a compile-time assumption.
func ReadButtons(expander hwio.Expander, st *state.ControllerState, clk clock.Clock, polarity state.Polarity) map[string]Result {
	now := clk.NowMs()
	results := map[string]Result{}

	for name, in := range map[string]hwio.ExpanderInput{
		"yellow": hwio.ButtonYellow,
		"blue":   hwio.ButtonBlue,
		"green":  hwio.ButtonGreen,
	} {
		level, err := expander.Read(in)
		if err != nil {
			results[name] = Result{Edge: NoEdge}
			continue
		}
		triggered := polarity.Triggered(level)
		edge, dur := Sample(st.Buttons[name], triggered, now)
		results[name] = Result{Edge: edge, DurationMs: dur}
	}
	return results
}

// PressDuration returns the current (possibly still in-progress) press
// duration for a button, given the latest tick's time.
func PressDuration(bs *state.ButtonState, now uint64) uint64 {
	if !bs.CurrentState {
		return 0
	}
	return now - bs.PressedAtMs
}

// EStopReader tracks the dedicated emergency-stop line's previous level
// so ReadEStop can report the raw press edge without the panel buttons'
// 50ms debounce window: the e-stop line is evaluated every tick for
// responsiveness.
type EStopReader struct {
	prev   bool
	primed bool
}

// ReadEStop samples the e-stop GPIO (already polarity-resolved by the
// hwio.EStop implementation) and reports the currently-held level plus
// whether this tick observed a fresh press edge.
func (r *EStopReader) ReadEStop(estop hwio.EStop) (held bool, pressedEdge bool, err error) {
	triggered, err := estop.Read()
	if err != nil {
		return false, false, err
	}
	edge := triggered && !r.prev
	if !r.primed {
		edge = false
		r.primed = true
	}
	r.prev = triggered
	return triggered, edge, nil
}
