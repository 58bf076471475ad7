//go:build !linux

package gpio

import "fmt"

type Line struct{}

func OpenOutput(chip, name string, initial int) (*Line, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func OpenPin(chip, name string) (*Line, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func (l *Line) SetValue(v int) error { return fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) High() error          { return fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) Low() error           { return fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) Read() (bool, error)  { return false, fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) Name() string         { return "" }
func (l *Line) Close() error         { return nil }
