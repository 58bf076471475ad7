// Package gpio drives the receiver's auxiliary lines: the active-low reset,
// the SPI chip-select and the two bit-banged I2C lines.
package gpio

import "fmt"

// Output is a line that can be driven to 0 or 1.
type Output interface {
	SetValue(v int) error
}

// Reset drives the receiver's active-low RESET_N line.
type Reset struct {
	out Output
}

func NewReset(out Output) *Reset { return &Reset{out: out} }

// Assert holds the receiver in reset.
func (r *Reset) Assert() error {
	if r == nil || r.out == nil {
		return fmt.Errorf("gpio: reset line not initialized")
	}
	return r.out.SetValue(0)
}

func (r *Reset) Release() error {
	if r == nil || r.out == nil {
		return fmt.Errorf("gpio: reset line not initialized")
	}
	return r.out.SetValue(1)
}

// ChipSelect drives an active-low chip-select line.
type ChipSelect struct {
	out Output
}

func NewChipSelect(out Output) *ChipSelect { return &ChipSelect{out: out} }

func (c *ChipSelect) Select() error {
	if c == nil || c.out == nil {
		return fmt.Errorf("gpio: chip-select not initialized")
	}
	return c.out.SetValue(0)
}

func (c *ChipSelect) Deselect() error {
	if c == nil || c.out == nil {
		return fmt.Errorf("gpio: chip-select not initialized")
	}
	return c.out.SetValue(1)
}

// LineName maps a BCM pin number to the line name the kernel exposes on
// Raspberry Pi boards.
func LineName(pin int) string { return fmt.Sprintf("GPIO%d", pin) }
