package hwio

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// OneWireProbe reads a DS18B20-class sensor through the kernel's w1
// driver: one device directory per probe, with the reading on the
// second line of w1_slave as a t= milli-degree-C field.
type OneWireProbe struct {
	DevicePath string // e.g. /sys/bus/w1/devices/28-000001, no trailing w1_slave
}

func (p *OneWireProbe) ReadF() (float64, error) {
	file := filepath.Join(p.DevicePath, "w1_slave")
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error().Err(err).Str("device", p.DevicePath).Msg("failed to read 1-wire sensor")
		return 0, err
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "t=") {
		log.Error().Str("device", p.DevicePath).Msg("temperature data missing or malformed")
		return 0, errMalformedReading
	}

	parts := strings.Split(lines[1], "t=")
	if len(parts) != 2 {
		return 0, errMalformedReading
	}

	milliC, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		log.Error().Err(err).Str("device", p.DevicePath).Msg("failed to convert temperature to int")
		return 0, err
	}

	c := float64(milliC) / 1000.0
	return c*9.0/5.0 + 32.0, nil
}

var errMalformedReading = &ReadingError{"could not parse 1-wire temperature line"}

// ReadingError is returned for malformed sensor payloads.
type ReadingError struct{ msg string }

func (e *ReadingError) Error() string { return e.msg }
