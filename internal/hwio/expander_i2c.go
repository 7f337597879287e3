package hwio

import (
	i2c "github.com/d2r2/go-i2c"
)

// I2CExpander reads the shared float-switch/panel-button IO-expander
// over I2C, the same NewI2C(addr, bus)/ReadBytes(1) call shape the
// go-sht3x driver uses against the identical library.
type I2CExpander struct {
	bus *i2c.I2C

	// BitForInput maps a logical ExpanderInput to the bit position it
	// occupies in the single status byte the expander reports.
	BitForInput map[ExpanderInput]uint
}

// NewI2CExpander opens the IO-expander at the given address/bus.
func NewI2CExpander(addr uint8, bus int, bitmap map[ExpanderInput]uint) (*I2CExpander, error) {
	conn, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, err
	}
	return &I2CExpander{bus: conn, BitForInput: bitmap}, nil
}

func (e *I2CExpander) Close() error {
	return e.bus.Close()
}

func (e *I2CExpander) Read(input ExpanderInput) (bool, error) {
	buf := make([]byte, 1)
	if _, err := e.bus.ReadBytes(buf); err != nil {
		return false, err
	}
	bit := e.BitForInput[input]
	return buf[0]&(1<<bit) != 0, nil
}
