package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflink/aquarium-controller/internal/clock"
	"github.com/reeflink/aquarium-controller/internal/eventlog"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

type fakeExpander struct {
	levels map[hwio.ExpanderInput]bool
}

func newFakeExpander() *fakeExpander {
	return &fakeExpander{levels: map[hwio.ExpanderInput]bool{}}
}

func (e *fakeExpander) Read(in hwio.ExpanderInput) (bool, error) { return e.levels[in], nil }

type fakeEStop struct{ triggered bool }

func (e *fakeEStop) Read() (bool, error) { return e.triggered, nil }

type fakeProbe struct{ f float64 }

func (p *fakeProbe) ReadF() (float64, error) { return p.f, nil }

type fakeRTC struct{ dt hwio.DateTime }

func (r *fakeRTC) Now() (hwio.DateTime, error) { return r.dt, nil }

type fakeIR struct{ sent []hwio.IRCommand }

func (f *fakeIR) Send(cmd hwio.IRCommand) error { f.sent = append(f.sent, cmd); return nil }

type noopBuzzer struct{}

func (noopBuzzer) Tone(freqHz int, dur time.Duration) error { return nil }

type fakeRelayBank struct{ relays map[hwio.RelayID]bool }

func newFakeRelayBank() *fakeRelayBank { return &fakeRelayBank{relays: map[hwio.RelayID]bool{}} }

func (b *fakeRelayBank) Set(id hwio.RelayID, on bool) error { b.relays[id] = on; return nil }
func (b *fakeRelayBank) Get(id hwio.RelayID) (bool, error)  { return b.relays[id], nil }

// testRig bundles a Controller with handles to every fake collaborator so
// tests can drive inputs and inspect commanded outputs directly.
type testRig struct {
	ctrl     *Controller
	expander *fakeExpander
	estop    *fakeEStop
	sump     *fakeProbe
	display  *fakeProbe
	rtc      *fakeRTC
	ir       *fakeIR
	relays   *fakeRelayBank
	clk      *clock.Fake
}

// newRig wires an all-active-low, night-mode (RTC hour 2) controller, the
// quietest possible boot state so each test only has to set up the
// inputs its scenario cares about.
func newRig(t *testing.T) *testRig {
	t.Helper()
	exp := newFakeExpander()
	// active-low inputs read as "not triggered" when the raw level is
	// high, so default every float/button line high (untriggered).
	for _, in := range []hwio.ExpanderInput{
		hwio.FloatLow, hwio.FloatHigh, hwio.FloatReservoirEmpty,
		hwio.ButtonYellow, hwio.ButtonBlue, hwio.ButtonGreen,
	} {
		exp.levels[in] = true
	}
	estop := &fakeEStop{triggered: false}
	sump := &fakeProbe{f: 78.0}
	display := &fakeProbe{f: 78.0}
	rtc := &fakeRTC{dt: hwio.DateTime{Day: 1, Hour: 2, Minute: 0}}
	ir := &fakeIR{}
	relays := newFakeRelayBank()
	clk := clock.NewFake()

	hw := Hardware{
		Expander:     exp,
		EStop:        estop,
		SumpProbe:    sump,
		DisplayProbe: display,
		RTC:          rtc,
		IR:           ir,
		Buzzer:       noopBuzzer{},
		Relays:       relays,
	}
	pol := Polarities{
		FloatLow:            state.ActiveLow,
		FloatHigh:           state.ActiveLow,
		FloatReservoirEmpty: state.ActiveLow,
		Buttons:             state.ActiveLow,
		EStop:               state.ActiveLow,
	}
	elog, err := eventlog.Open(100)
	require.NoError(t, err)
	t.Cleanup(func() { elog.Close() })

	ctrl := New(hw, pol, clk, elog)
	return &testRig{ctrl: ctrl, expander: exp, estop: estop, sump: sump, display: display, rtc: rtc, ir: ir, relays: relays, clk: clk}
}

func TestTick_HeaterEngagesBelowSetpoint(t *testing.T) {
	r := newRig(t)
	r.sump.f = 77.0

	r.ctrl.Tick()

	on, _ := r.relays.Get(hwio.HeaterPrimary)
	assert.True(t, on)
}

func TestTick_HeaterOffAboveSetpoint(t *testing.T) {
	r := newRig(t)
	r.sump.f = 79.0

	r.ctrl.Tick()

	on, _ := r.relays.Get(hwio.HeaterPrimary)
	assert.False(t, on)
}

func TestTick_EStopLatchesAndMasksHeaterAndPump(t *testing.T) {
	r := newRig(t)
	r.sump.f = 70.0
	r.expander.levels[hwio.FloatLow] = false // triggered: active-low

	r.ctrl.Tick() // primes the undebounced e-stop reader on a clean line

	r.estop.triggered = true
	r.ctrl.Tick() // observes the fresh press edge

	assert.True(t, r.ctrl.State().EmergencyStop)
	heaterOn, _ := r.relays.Get(hwio.HeaterPrimary)
	pumpOn, _ := r.relays.Get(hwio.AtoPump)
	assert.False(t, heaterOn, "e-stop must mask the heater relay even though sump reads cold")
	assert.False(t, pumpOn, "e-stop must mask the ato pump relay even though low float is triggered")
}

func TestTick_ComboResetClearsEmergencyStop(t *testing.T) {
	r := newRig(t)

	r.ctrl.Tick() // primes the e-stop reader
	r.estop.triggered = true
	r.ctrl.Tick()
	require.True(t, r.ctrl.State().EmergencyStop)
	r.estop.triggered = false
	r.ctrl.Tick()

	// Hold blue through the debounce window, then past the arm
	// threshold.
	r.expander.levels[hwio.ButtonBlue] = false // pressed: active-low
	r.ctrl.Tick()
	r.clk.Advance(51)
	r.ctrl.Tick()
	r.clk.Advance(2000)
	r.ctrl.Tick()
	require.True(t, r.ctrl.State().ResetArmed)

	// E-stop pressed while blue is still held fires the reset combo.
	r.estop.triggered = true
	r.ctrl.Tick()

	assert.False(t, r.ctrl.State().EmergencyStop)
	assert.False(t, r.ctrl.State().ResetArmed)
}

func TestTick_OverTemperatureLatchesFaultStop(t *testing.T) {
	r := newRig(t)
	r.sump.f = 83.0

	r.ctrl.Tick()

	assert.True(t, r.ctrl.State().EmergencyStop)
}

func TestTick_ATOFillsOnLowFloat(t *testing.T) {
	r := newRig(t)
	r.expander.levels[hwio.FloatLow] = false // active-low triggered

	r.ctrl.Tick()

	assert.True(t, r.ctrl.State().Ato.Running)
	on, _ := r.relays.Get(hwio.AtoPump)
	assert.True(t, on)
}

func TestTick_NightModeSelectedAtBootAndHeld(t *testing.T) {
	r := newRig(t)

	r.ctrl.Tick()

	assert.Equal(t, state.Night, r.ctrl.State().Lighting.Mode)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.ctrl.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRecordEvents_OnlyLogsOnRisingEdge(t *testing.T) {
	r := newRig(t)
	r.sump.f = 83.0

	r.ctrl.Tick()
	events, err := r.ctrl.log.Query("emergency_stop", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// Fault stays latched on the next tick; must not record a second event.
	r.ctrl.Tick()
	events, err = r.ctrl.log.Query("emergency_stop", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1, "rising-edge-only recording must not duplicate the event while the latch holds")
}
