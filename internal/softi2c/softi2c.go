// Package softi2c is a bit-banged I2C master for receivers wired to plain
// GPIO lines. It exposes the receiver's DDC port as a transport.ByteStream.
package softi2c

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var sleep = time.Sleep

// stretchPolls bounds how long a slave may hold SCL low.
const stretchPolls = 1000

// DDC registers.
const (
	regBytesAvailable = 0xFD
)

var ErrNack = errors.New("softi2c: no acknowledge")

// Pin is an open-drain line. High releases it, Low drives it to 0.
type Pin interface {
	High() error
	Low() error
	Read() (bool, error)
}

type Options struct {
	// Half is half a clock period. Zero runs as fast as the pins allow.
	Half time.Duration
}

// Bus is an I2C master on two pins talking to one slave address.
type Bus struct {
	mu   sync.Mutex
	sda  Pin
	scl  Pin
	addr byte
	half time.Duration

	inRead     bool
	pendingAck bool
	remaining  int
}

func New(sda, scl Pin, addr byte, o Options) (*Bus, error) {
	if sda == nil || scl == nil {
		return nil, fmt.Errorf("softi2c: sda and scl are required")
	}
	if addr == 0 || addr > 0x7F {
		return nil, fmt.Errorf("softi2c: invalid addr 0x%X", addr)
	}
	b := &Bus{sda: sda, scl: scl, addr: addr, half: o.Half}
	if err := b.idle(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) Lock()   { b.mu.Lock() }
func (b *Bus) Unlock() { b.mu.Unlock() }

// Available reads the DDC byte count with a register write and a repeated
// start.
func (b *Bus) Available() (int, error) {
	if b.inRead {
		return 0, fmt.Errorf("softi2c: read transaction open")
	}
	if err := b.start(); err != nil {
		return 0, err
	}
	if err := b.address(false); err != nil {
		return 0, b.abort(err)
	}
	if err := b.writeByte(regBytesAvailable); err != nil {
		return 0, b.abort(err)
	}
	if err := b.start(); err != nil {
		return 0, b.abort(err)
	}
	if err := b.address(true); err != nil {
		return 0, b.abort(err)
	}
	hi, err := b.readByte()
	if err != nil {
		return 0, b.abort(err)
	}
	if err := b.writeBit(false); err != nil {
		return 0, b.abort(err)
	}
	lo, err := b.readByte()
	if err != nil {
		return 0, b.abort(err)
	}
	if err := b.writeBit(true); err != nil {
		return 0, b.abort(err)
	}
	if err := b.stop(); err != nil {
		return 0, err
	}
	return int(hi)<<8 | int(lo), nil
}

// Begin opens a read transaction of at most n bytes from the stream
// register.
func (b *Bus) Begin(n int) error {
	if b.inRead {
		return fmt.Errorf("softi2c: read transaction open")
	}
	if err := b.start(); err != nil {
		return err
	}
	if err := b.address(true); err != nil {
		return b.abort(err)
	}
	b.inRead = true
	b.pendingAck = false
	b.remaining = n
	return nil
}

// ReadByte acknowledges the previous byte, then clocks in the next one. The
// last byte is not acknowledged until End, which sends the NACK.
func (b *Bus) ReadByte() (byte, error) {
	if !b.inRead {
		return 0, fmt.Errorf("softi2c: no read transaction")
	}
	if b.remaining <= 0 {
		return 0, fmt.Errorf("softi2c: read past transaction length")
	}
	if b.pendingAck {
		if err := b.writeBit(false); err != nil {
			return 0, err
		}
	}
	v, err := b.readByte()
	if err != nil {
		return 0, err
	}
	b.pendingAck = true
	b.remaining--
	return v, nil
}

func (b *Bus) End() error {
	if !b.inRead {
		return nil
	}
	b.inRead = false
	var err error
	if b.pendingAck {
		err = b.writeBit(true)
		b.pendingAck = false
	}
	return errors.Join(err, b.stop())
}

// Write sends p to the receiver in one transaction.
func (b *Bus) Write(p []byte) error {
	if b.inRead {
		return fmt.Errorf("softi2c: read transaction open")
	}
	if len(p) == 0 {
		return nil
	}
	if err := b.start(); err != nil {
		return err
	}
	if err := b.address(false); err != nil {
		return b.abort(err)
	}
	for i, v := range p {
		if err := b.writeByte(v); err != nil {
			return b.abort(fmt.Errorf("byte %d: %w", i, err))
		}
	}
	return b.stop()
}

func (b *Bus) abort(err error) error {
	return errors.Join(err, b.stop())
}

func (b *Bus) address(read bool) error {
	v := b.addr << 1
	if read {
		v |= 1
	}
	if err := b.writeByte(v); err != nil {
		return fmt.Errorf("address 0x%02X: %w", b.addr, err)
	}
	return nil
}

func (b *Bus) delay() {
	if b.half > 0 {
		sleep(b.half)
	}
}

func (b *Bus) idle() error {
	if err := b.sda.High(); err != nil {
		return err
	}
	return b.scl.High()
}

// sclHigh releases SCL and waits out clock stretching.
func (b *Bus) sclHigh() error {
	if err := b.scl.High(); err != nil {
		return err
	}
	for i := 0; i < stretchPolls; i++ {
		v, err := b.scl.Read()
		if err != nil {
			return err
		}
		if v {
			return nil
		}
		b.delay()
	}
	return fmt.Errorf("softi2c: scl held low")
}

func (b *Bus) start() error {
	if err := b.sda.High(); err != nil {
		return err
	}
	b.delay()
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay()
	if err := b.sda.Low(); err != nil {
		return err
	}
	b.delay()
	return b.scl.Low()
}

func (b *Bus) stop() error {
	if err := b.sda.Low(); err != nil {
		return err
	}
	b.delay()
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay()
	if err := b.sda.High(); err != nil {
		return err
	}
	b.delay()
	return nil
}

func (b *Bus) writeBit(v bool) error {
	var err error
	if v {
		err = b.sda.High()
	} else {
		err = b.sda.Low()
	}
	if err != nil {
		return err
	}
	b.delay()
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay()
	return b.scl.Low()
}

func (b *Bus) readBit() (bool, error) {
	if err := b.sda.High(); err != nil {
		return false, err
	}
	b.delay()
	if err := b.sclHigh(); err != nil {
		return false, err
	}
	b.delay()
	v, err := b.sda.Read()
	if err != nil {
		return false, err
	}
	return v, b.scl.Low()
}

func (b *Bus) writeByte(v byte) error {
	for i := 7; i >= 0; i-- {
		if err := b.writeBit(v&(1<<i) != 0); err != nil {
			return err
		}
	}
	nack, err := b.readBit()
	if err != nil {
		return err
	}
	if nack {
		return ErrNack
	}
	return nil
}

func (b *Bus) readByte() (byte, error) {
	var v byte
	for i := 0; i < 8; i++ {
		bit, err := b.readBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}
