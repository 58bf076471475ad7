// Package spi drives a receiver's SPI port one byte at a time as a
// transport.ClockedBus.
package spi

import "fmt"

// MaxSpeedHz is the fastest SPI clock the receivers accept.
const MaxSpeedHz = 5_500_000

// Conn performs one full-duplex transfer. keepCS leaves the kernel
// chip-select asserted after the transfer.
type Conn interface {
	Transfer(w, r []byte, keepCS bool) error
}

// Selector is a chip-select line driven outside the SPI controller.
type Selector interface {
	Select() error
	Deselect() error
}

// Bus selects the receiver for a transaction and exchanges single bytes.
type Bus struct {
	conn Conn
	cs   Selector

	out [1]byte
	in  [1]byte
}

// New returns a Bus on conn. With a nil cs the controller's own chip-select
// is held across the transaction.
func New(conn Conn, cs Selector) *Bus {
	return &Bus{conn: conn, cs: cs}
}

func (b *Bus) Begin() error {
	if b.cs == nil {
		return nil
	}
	if err := b.cs.Select(); err != nil {
		return fmt.Errorf("spi: select: %w", err)
	}
	return nil
}

func (b *Bus) Exchange(out byte) (byte, error) {
	b.out[0] = out
	if err := b.conn.Transfer(b.out[:], b.in[:], b.cs == nil); err != nil {
		return 0, fmt.Errorf("spi: transfer: %w", err)
	}
	return b.in[0], nil
}

func (b *Bus) End() error {
	if b.cs == nil {
		// An empty transfer releases the controller chip-select.
		if err := b.conn.Transfer(nil, nil, false); err != nil {
			return fmt.Errorf("spi: deselect: %w", err)
		}
		return nil
	}
	if err := b.cs.Deselect(); err != nil {
		return fmt.Errorf("spi: deselect: %w", err)
	}
	return nil
}
