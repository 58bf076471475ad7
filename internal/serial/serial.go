// Package serial exposes a receiver's UART as a transport.ByteStream.
package serial

import (
	"fmt"
	"io"
)

// Port reads whole transactions from a UART. The pending byte count comes
// from the driver's input queue, so a Begin never blocks. Bytes a transaction
// did not consume stay queued for the next one, the way the DDC port keeps
// unread bytes in the receiver.
type Port struct {
	rw      io.ReadWriter
	pending func() (int, error)
	closer  io.Closer

	buf []byte
	pos int
}

func newPort(rw io.ReadWriter, pending func() (int, error), closer io.Closer) *Port {
	return &Port{rw: rw, pending: pending, closer: closer}
}

func (p *Port) Available() (int, error) {
	n, err := p.pending()
	if err != nil {
		return 0, fmt.Errorf("serial: input queue: %w", err)
	}
	return len(p.buf) + n, nil
}

// Begin makes n bytes available to ReadByte, topping up the carried-over
// bytes from the UART.
func (p *Port) Begin(n int) error {
	p.pos = 0
	have := len(p.buf)
	if n <= have {
		return nil
	}
	if cap(p.buf) < n {
		grown := make([]byte, have, n)
		copy(grown, p.buf)
		p.buf = grown
	}
	p.buf = p.buf[:n]
	if _, err := io.ReadFull(p.rw, p.buf[have:]); err != nil {
		p.buf = p.buf[:have]
		return fmt.Errorf("serial: read: %w", err)
	}
	return nil
}

func (p *Port) ReadByte() (byte, error) {
	if p.pos >= len(p.buf) {
		return 0, io.EOF
	}
	b := p.buf[p.pos]
	p.pos++
	return b, nil
}

// End keeps the unconsumed bytes for the next transaction.
func (p *Port) End() error {
	n := copy(p.buf, p.buf[p.pos:])
	p.buf = p.buf[:n]
	p.pos = 0
	return nil
}

func (p *Port) Write(b []byte) error {
	if _, err := p.rw.Write(b); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

func (p *Port) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
