package i2c

import (
	"encoding/binary"
	"fmt"
)

// DefaultAddress is the u-blox DDC (I2C) slave address.
const DefaultAddress = 0x42

// DDC registers.
const (
	RegBytesAvailable = 0xFD // 2 bytes, big-endian
	RegStream         = 0xFF
)

// Device is the subset of Dev the DDC port needs.
type Device interface {
	Write(p []byte) error
	Read(p []byte) error
	WriteRead(w, r []byte) error
}

// DDC exposes a receiver's DDC port as a register bus: a byte count query
// followed by plain reads from the message stream.
type DDC struct {
	dev Device
}

func NewDDC(dev Device) *DDC { return &DDC{dev: dev} }

// Available returns the number of bytes the receiver has queued.
func (d *DDC) Available() (int, error) {
	var b [2]byte
	if err := d.dev.WriteRead([]byte{RegBytesAvailable}, b[:]); err != nil {
		return 0, fmt.Errorf("ddc byte count: %w", err)
	}
	return int(binary.BigEndian.Uint16(b[:])), nil
}

// ReadBurst reads len(p) bytes from the stream. The register pointer
// advances to 0xFF by itself after the count query.
func (d *DDC) ReadBurst(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return d.dev.Read(p)
}

func (d *DDC) WriteBurst(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return d.dev.Write(p)
}
