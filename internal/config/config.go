// Package config loads the controller's boot-time configuration: a log
// level and config-file path from flag, the body from encoding/json,
// and a reflect-based validate() pass over the GPIO pin table that
// panics on a missing field or a duplicate pin assignment. Float-switch
// and panel-button polarity are a runtime Polarity per input here, not
// a compile-time flag, so a rewire never needs a rebuild.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reeflink/aquarium-controller/internal/state"
)

// Pins is the GPIO/board pin table. Every *int field is required; two
// fields sharing a pin number is a boot-time configuration error.
type Pins struct {
	SumpProbeOneWireID    *string `json:"sump_probe_onewire_id"`
	DisplayProbeOneWireID *string `json:"display_probe_onewire_id"`

	HeaterPrimaryRelay *int `json:"heater_primary_relay"`
	HeaterBackupRelay  *int `json:"heater_backup_relay"`
	AtoPumpRelay       *int `json:"ato_pump_relay"`
	GyreOutletRelay    *int `json:"gyre_outlet_relay"`

	EStopGPIO    *int `json:"estop_gpio"`
	IREmitterPin *int `json:"ir_emitter_pin"`
	BuzzerPin    *int `json:"buzzer_pin"`
}

// ExpanderConfig describes the shared I2C IO-expander carrying the three
// float switches and three panel buttons.
type ExpanderConfig struct {
	I2CAddress uint8 `json:"i2c_address"`
	I2CBus     int   `json:"i2c_bus"`

	BitFloatLow            uint `json:"bit_float_low"`
	BitFloatHigh           uint `json:"bit_float_high"`
	BitFloatReservoirEmpty uint `json:"bit_float_reservoir_empty"`
	BitButtonYellow        uint `json:"bit_button_yellow"`
	BitButtonBlue          uint `json:"bit_button_blue"`
	BitButtonGreen         uint `json:"bit_button_green"`
}

// Polarities collects the runtime-configurable active-low/active-high
// setting for every digital input.
type Polarities struct {
	FloatLow            state.Polarity `json:"float_low"`
	FloatHigh           state.Polarity `json:"float_high"`
	FloatReservoirEmpty state.Polarity `json:"float_reservoir_empty"`
	Buttons             state.Polarity `json:"buttons"`
	EStop               state.Polarity `json:"estop"`
}

// RelayWiring describes how each relay's commanded logical state maps to
// the physical drive level, including the gyre outlet's NC option.
type RelayWiring struct {
	HeaterPrimaryActiveHigh bool `json:"heater_primary_active_high"`
	HeaterBackupActiveHigh  bool `json:"heater_backup_active_high"`
	AtoPumpActiveHigh       bool `json:"ato_pump_active_high"`
	GyreOutletActiveHigh    bool `json:"gyre_outlet_active_high"`
	// GyreWiredNC inverts the gyre outlet's commanded value before
	// driving the pin, for normally-closed wiring.
	GyreWiredNC bool `json:"gyre_wired_nc"`
}

// Telemetry configures the optional Datadog statsd sink.
type Telemetry struct {
	Enabled    bool     `json:"enabled"`
	StatsdAddr string   `json:"statsd_addr"`
	Namespace  string   `json:"namespace"`
	Tags       []string `json:"tags"`
}

// Config is the full boot-time configuration.
type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	LogHuman   bool

	TickInterval int `json:"tick_interval_ms"`

	Pins             Pins           `json:"pins"`
	Expander         ExpanderConfig `json:"expander"`
	Polarity         Polarities     `json:"polarity"`
	RelayWire        RelayWiring    `json:"relay_wiring"`
	Telemetry        Telemetry      `json:"telemetry"`
	EventLogCapacity int            `json:"event_log_capacity"`
}

// Load parses flags, reads the JSON config file they name, and validates
// the GPIO pin table. It panics on an unreadable/malformed config file
// or a validation failure; boot-time misconfiguration is the one place
// this program panics rather than logging and continuing.
func Load(args []string) Config {
	fs := flag.NewFlagSet("aquarium-controller", flag.ExitOnError)
	var logLevel string
	var configFile string
	var human bool

	fs.StringVar(&configFile, "config-file", "config.json", "Path to controller config file")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&human, "human-log", false, "Console-format logs for a terminal instead of JSON")
	_ = fs.Parse(args)

	var cfg Config
	cfg.ConfigFile = configFile
	cfg.LogLevel = parseLogLevel(logLevel)
	cfg.LogHuman = human

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("failed to open config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("failed to parse config file: " + err.Error())
	}

	if cfg.TickInterval == 0 {
		cfg.TickInterval = 100
	}
	if cfg.EventLogCapacity == 0 {
		cfg.EventLogCapacity = 500
	}
	applyPolarityDefaults(&cfg.Polarity)

	cfg.validate()
	return cfg
}

func applyPolarityDefaults(p *Polarities) {
	// Internal pull-ups make every switch active-low unless the config
	// says otherwise.
	if p.FloatLow == "" {
		p.FloatLow = state.ActiveLow
	}
	if p.FloatHigh == "" {
		p.FloatHigh = state.ActiveLow
	}
	if p.FloatReservoirEmpty == "" {
		p.FloatReservoirEmpty = state.ActiveLow
	}
	if p.Buttons == "" {
		p.Buttons = state.ActiveLow
	}
	if p.EStop == "" {
		p.EStop = state.ActiveLow
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// validate walks Pins by reflection, panicking on a nil required field
// or on two fields sharing a pin/ID.
func (cfg *Config) validate() {
	var missingFields []string
	var conflicts []string
	usedPins := map[string]string{}

	v := reflect.ValueOf(cfg.Pins)
	t := reflect.TypeOf(cfg.Pins)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			missingFields = append(missingFields, "pins."+fieldName)
			continue
		}

		key := pinKey(field)
		if other, exists := usedPins[key]; exists {
			conflicts = append(conflicts, fmt.Sprintf("pins.%s and pins.%s both use %s", fieldName, other, key))
		} else {
			usedPins[key] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("missing required pin config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("conflicting pin assignments: " + strings.Join(conflicts, ", "))
	}
}

// pinKey renders a *int or *string pin field into a comparable string so
// one-wire device IDs and GPIO numbers share the same conflict check.
func pinKey(field reflect.Value) string {
	elem := field.Elem()
	switch elem.Kind() {
	case reflect.String:
		return "id:" + elem.String()
	default:
		return fmt.Sprintf("gpio:%d", elem.Int())
	}
}
