//go:build linux

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "ubxgnss"

// Line is a requested GPIO line.
type Line struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	name string
}

// chipCandidates lists the GPIO character devices to search, preferred chip
// first.
func chipCandidates(chip string) []string {
	var out []string
	if chip != "" {
		out = append(out, chip)
	}
	// Pi 5 kernel variants can expose header GPIOs on gpiochip4.
	out = append(out, "/dev/gpiochip0", "/dev/gpiochip4")
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			out = append(out, filepath.Join("/dev", name))
		}
	}
	return out
}

func request(chip, name string, opts ...gpiocdev.LineReqOption) (*Line, error) {
	if name == "" {
		return nil, fmt.Errorf("gpio: empty line name")
	}
	opts = append(opts, gpiocdev.WithConsumer(consumer))
	seen := map[string]bool{}
	for _, chipPath := range chipCandidates(chip) {
		if seen[chipPath] {
			continue
		}
		seen[chipPath] = true
		c, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := c.FindLine(name)
		if err != nil {
			_ = c.Close()
			continue
		}
		l, err := c.RequestLine(offset, opts...)
		if err != nil {
			_ = c.Close()
			continue
		}
		return &Line{chip: c, line: l, name: name}, nil
	}
	return nil, fmt.Errorf("gpio: line %q not found (or busy)", name)
}

// OpenOutput requests name as an output driven to initial.
func OpenOutput(chip, name string, initial int) (*Line, error) {
	return request(chip, name, gpiocdev.AsOutput(initial))
}

// OpenPin requests name as a bit-bang pin. It starts released (input with
// pull-up).
func OpenPin(chip, name string) (*Line, error) {
	return request(chip, name, gpiocdev.AsInput, gpiocdev.WithPullUp)
}

func (l *Line) SetValue(v int) error {
	if l == nil || l.line == nil {
		return fmt.Errorf("gpio: line not initialized")
	}
	return l.line.SetValue(v)
}

// High releases the line and lets the pull-up raise it.
func (l *Line) High() error {
	if l == nil || l.line == nil {
		return fmt.Errorf("gpio: line not initialized")
	}
	return l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
}

// Low drives the line to 0.
func (l *Line) Low() error {
	if l == nil || l.line == nil {
		return fmt.Errorf("gpio: line not initialized")
	}
	return l.line.Reconfigure(gpiocdev.AsOutput(0))
}

func (l *Line) Read() (bool, error) {
	if l == nil || l.line == nil {
		return false, fmt.Errorf("gpio: line not initialized")
	}
	v, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (l *Line) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

func (l *Line) Close() error {
	if l == nil || l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	if l.chip != nil {
		_ = l.chip.Close()
		l.chip = nil
	}
	return err
}
