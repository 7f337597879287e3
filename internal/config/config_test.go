package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zerolog.Level
	}{
		{"default to info", "", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"unknown", "weird", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := parseLogLevel(tt.input)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func validPins() Pins {
	return Pins{
		SumpProbeOneWireID:    strPtr("28-000001"),
		DisplayProbeOneWireID: strPtr("28-000002"),
		HeaterPrimaryRelay:    intPtr(10),
		HeaterBackupRelay:     intPtr(11),
		AtoPumpRelay:          intPtr(12),
		GyreOutletRelay:       intPtr(13),
		EStopGPIO:             intPtr(14),
		IREmitterPin:          intPtr(15),
		BuzzerPin:             intPtr(16),
	}
}

func TestConfigValidate_OK(t *testing.T) {
	cfg := &Config{Pins: validPins()}
	assert.NotPanics(t, func() { cfg.validate() })
}

func TestConfigValidate_MissingField(t *testing.T) {
	pins := validPins()
	pins.BuzzerPin = nil
	cfg := &Config{Pins: pins}

	assert.PanicsWithValue(t,
		"missing required pin config fields: pins.buzzer_pin",
		func() { cfg.validate() },
	)
}

func TestConfigValidate_PinConflict(t *testing.T) {
	pins := validPins()
	pins.HeaterBackupRelay = pins.HeaterPrimaryRelay // conflict
	cfg := &Config{Pins: pins}

	assert.PanicsWithValue(t,
		"conflicting pin assignments: pins.heater_backup_relay and pins.heater_primary_relay both use gpio:10",
		func() { cfg.validate() },
	)
}

func TestConfigValidate_DeviceIDConflict(t *testing.T) {
	pins := validPins()
	pins.DisplayProbeOneWireID = pins.SumpProbeOneWireID // conflict
	cfg := &Config{Pins: pins}

	assert.PanicsWithValue(t,
		"conflicting pin assignments: pins.display_probe_onewire_id and pins.sump_probe_onewire_id both use id:28-000001",
		func() { cfg.validate() },
	)
}
