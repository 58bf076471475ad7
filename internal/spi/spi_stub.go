//go:build !linux

package spi

import "fmt"

const ModeNoCS = 0x40

type Dev struct{}

func Open(path string, mode uint8, speedHz int) (*Dev, error) {
	return nil, fmt.Errorf("spi: unsupported OS (need linux)")
}

func (d *Dev) Close() error { return nil }

func (d *Dev) Transfer(w, r []byte, keepCS bool) error {
	return fmt.Errorf("spi: unsupported OS")
}
