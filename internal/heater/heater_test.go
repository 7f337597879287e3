package heater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflink/aquarium-controller/internal/actuator"
	"github.com/reeflink/aquarium-controller/internal/hwio"
	"github.com/reeflink/aquarium-controller/internal/state"
)

type fakeRelayBank struct {
	relays map[hwio.RelayID]bool
}

func newFakeRelayBank() *fakeRelayBank {
	return &fakeRelayBank{relays: map[hwio.RelayID]bool{}}
}

func (b *fakeRelayBank) Set(id hwio.RelayID, on bool) error {
	b.relays[id] = on
	return nil
}

func (b *fakeRelayBank) Get(id hwio.RelayID) (bool, error) {
	return b.relays[id], nil
}

func TestEvaluate_TurnsOnBelowLowerBand(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Temp.SumpF = 77.4

	c.Evaluate(st)

	assert.True(t, st.Heater.PrimaryOn)
	on, _ := bank.Get(hwio.HeaterPrimary)
	assert.True(t, on)
}

func TestEvaluate_TurnsOffAboveUpperBand(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = true
	st.Temp.SumpF = 78.6

	c.Evaluate(st)

	assert.False(t, st.Heater.PrimaryOn)
}

func TestEvaluate_HoldsStateInsideDeadband(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = true
	st.Temp.SumpF = 78.0

	c.Evaluate(st)
	assert.True(t, st.Heater.PrimaryOn, "already-on heater should not drop mid-band")

	st.Heater.PrimaryOn = false
	c.Evaluate(st)
	assert.False(t, st.Heater.PrimaryOn, "already-off heater should not light mid-band")
}

func TestEvaluate_HoldsStateAtExactLowerBoundary(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = false
	st.Temp.SumpF = 77.5

	c.Evaluate(st)

	assert.False(t, st.Heater.PrimaryOn, "77.5 is inside the inclusive dead band, not below it")
}

func TestEvaluate_HoldsStateAtExactUpperBoundary(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = true
	st.Temp.SumpF = 78.5

	c.Evaluate(st)

	assert.True(t, st.Heater.PrimaryOn, "78.5 is inside the inclusive dead band, not above it")
}

func TestEvaluate_EmergencyStopForcesOff(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = true
	st.Temp.SumpF = 70.0
	st.EmergencyStop = true

	c.Evaluate(st)

	assert.False(t, st.Heater.PrimaryOn)
	on, _ := bank.Get(hwio.HeaterPrimary)
	assert.False(t, on)
}

func TestEvaluate_StaleSumpReadingForcesOff(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Heater.PrimaryOn = true
	st.Temp.SumpF = 70.0
	st.Temp.SumpStale = true

	c.Evaluate(st)

	assert.False(t, st.Heater.PrimaryOn)
}

func TestEvaluate_BackupHeaterNeverCommandedOn(t *testing.T) {
	bank := newFakeRelayBank()
	c := New(actuator.New(bank))
	st := state.New()
	st.Temp.SumpF = 50.0

	c.Evaluate(st)

	require.False(t, st.Heater.BackupOn)
	on, _ := bank.Get(hwio.HeaterBackup)
	assert.False(t, on)
}
