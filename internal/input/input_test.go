package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

func TestSample_IgnoresChangeWithinDebounceWindow(t *testing.T) {
	bs := &state.ButtonState{}

	edge, _ := Sample(bs, true, 0)
	assert.Equal(t, NoEdge, edge, "first raw change only starts the debounce window")

	edge, _ = Sample(bs, true, debounceWindowMs-1)
	assert.Equal(t, NoEdge, edge, "still within the window")
	assert.False(t, bs.CurrentState)
}

func TestSample_PressedEdgeAfterWindowElapses(t *testing.T) {
	bs := &state.ButtonState{}

	Sample(bs, true, 0)
	edge, _ := Sample(bs, true, debounceWindowMs+1)

	assert.Equal(t, Pressed, edge)
	assert.True(t, bs.CurrentState)
	assert.Equal(t, uint64(debounceWindowMs+1), bs.PressedAtMs)
}

func TestSample_ReleasedEdgeReportsPressDuration(t *testing.T) {
	bs := &state.ButtonState{}

	Sample(bs, true, 0)
	Sample(bs, true, debounceWindowMs+1)

	Sample(bs, false, debounceWindowMs+2)
	edge, dur := Sample(bs, false, 2*debounceWindowMs+3)

	assert.Equal(t, Released, edge)
	assert.Equal(t, uint64(2*debounceWindowMs+3-(debounceWindowMs+1)), dur)
	assert.False(t, bs.CurrentState)
}

func TestSample_ChatterDuringWindowDoesNotFlipState(t *testing.T) {
	bs := &state.ButtonState{}

	Sample(bs, true, 0)
	edge, _ := Sample(bs, false, 10)
	assert.Equal(t, NoEdge, edge)
	edge, _ = Sample(bs, true, 20)
	assert.Equal(t, NoEdge, edge)
	assert.False(t, bs.CurrentState, "chatter inside the window must not be mistaken for a stable press")
}

func TestPressDuration_ZeroWhileNotPressed(t *testing.T) {
	bs := &state.ButtonState{}
	assert.Equal(t, uint64(0), PressDuration(bs, 5000))
}

func TestPressDuration_ElapsedWhilePressed(t *testing.T) {
	bs := &state.ButtonState{CurrentState: true, PressedAtMs: 1000}
	assert.Equal(t, uint64(500), PressDuration(bs, 1500))
}

type fakeExpander struct {
	levels map[hwio.ExpanderInput]bool
	err    error
}

func (f *fakeExpander) Read(in hwio.ExpanderInput) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.levels[in], nil
}

func TestReadButtons_AppliesPolarityAndClassifiesEdges(t *testing.T) {
	exp := &fakeExpander{levels: map[hwio.ExpanderInput]bool{hwio.ButtonYellow: false}}
	st := state.New()
	clk := clock.NewFake()

	// active-low: raw level false means triggered/pressed.
	results := ReadButtons(exp, st, clk, state.ActiveLow)
	assert.Equal(t, NoEdge, results["yellow"].Edge, "first sample only starts the debounce window")

	clk.Advance(debounceWindowMs + 1)
	results = ReadButtons(exp, st, clk, state.ActiveLow)
	assert.Equal(t, Pressed, results["yellow"].Edge)
}

type fakeEStop struct {
	triggered bool
	err       error
}

func (f *fakeEStop) Read() (bool, error) { return f.triggered, f.err }

func TestEStopReader_FirstReadNeverEdgesEvenIfAlreadyTriggered(t *testing.T) {
	var r EStopReader
	estop := &fakeEStop{triggered: true}

	held, edge, err := r.ReadEStop(estop)

	require.NoError(t, err)
	assert.True(t, held)
	assert.False(t, edge, "a line already triggered at boot must not synthesize a press edge")
}

func TestEStopReader_RisingEdgeDetectedOnceHeldDetectedAfter(t *testing.T) {
	var r EStopReader
	estop := &fakeEStop{triggered: false}

	_, edge, _ := r.ReadEStop(estop)
	assert.False(t, edge)

	estop.triggered = true
	held, edge, _ := r.ReadEStop(estop)
	assert.True(t, held)
	assert.True(t, edge)

	held, edge, _ = r.ReadEStop(estop)
	assert.True(t, held)
	assert.False(t, edge, "line still held, no repeated edge")
}

func TestEStopReader_PropagatesReadError(t *testing.T) {
	var r EStopReader
	estop := &fakeEStop{err: assertErr}

	_, _, err := r.ReadEStop(estop)
	assert.Equal(t, assertErr, err)
}

var assertErr = &readErr{"read failed"}

type readErr struct{ msg string }

func (e *readErr) Error() string { return e.msg }
