// Package transport reconstructs whole UBX/NMEA messages from the three bus
// disciplines a u-blox receiver exposes:
//
//   - BurstReader: a register interface with a byte-count query and burst
//     reads (I2C/DDC).
//   - StreamReader: a byte-at-a-time interface inside one transaction sized by
//     a byte-count query (bit-banged I2C, UART).
//   - ClockedReader: a full-duplex clocked exchange where every transmitted
//     byte also receives one (SPI).
//
// Every Read returns exactly zero or one message. Complete messages are passed
// to the attached Sink before Read returns.
package transport

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ubxgnss/internal/ubx"
)

// Filler is clocked out when there is nothing to send, and is what the receiver
// returns when it has nothing to say.
const Filler byte = 0xFF

// Outcome is the result of one read attempt.
type Outcome uint8

const (
	Complete Outcome = iota
	NoData
	Error
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case NoData:
		return "nodata"
	default:
		return "error"
	}
}

// ErrSend reports a transmit that did not reach the receiver.
var ErrSend = errors.New("transport: send failed")

// Sink receives every complete, verified message. msg is only valid for the
// duration of the call.
type Sink func(msg []byte)

// Transport is the driver's view of the bus.
type Transport interface {
	// Send transmits a complete frame.
	Send(frame []byte) error
	// Read attempts to reconstruct one message.
	Read() Outcome
	// Message returns the last complete message. It is only valid until the
	// next Send or Read.
	Message() []byte
	// SetSink attaches the consumer for complete messages.
	SetSink(Sink)
}

// RegisterBus is the collaborator for BurstReader.
type RegisterBus interface {
	// Available returns the number of bytes the receiver has queued.
	Available() (int, error)
	// ReadBurst fills p from the receiver's output stream.
	ReadBurst(p []byte) error
	// WriteBurst writes p to the receiver.
	WriteBurst(p []byte) error
}

// ByteStream is the collaborator for StreamReader.
type ByteStream interface {
	Available() (int, error)
	// Begin opens a read transaction of at most n bytes.
	Begin(n int) error
	ReadByte() (byte, error)
	// End closes the transaction opened by Begin.
	End() error
	Write(p []byte) error
}

// ClockedBus is the collaborator for ClockedReader.
type ClockedBus interface {
	// Begin selects the receiver for a transaction.
	Begin() error
	// Exchange clocks out one byte and returns the byte clocked in.
	Exchange(out byte) (byte, error)
	// End deselects the receiver.
	End() error
}

// Options configures a reader.
type Options struct {
	Logger *zap.Logger
	// Capacity is the receive buffer size. Defaults to ubx.MaxMessageLen.
	Capacity int
	// Lock serializes multi-step bus transactions with other users of the same
	// bus. Defaults to a private mutex.
	Lock sync.Locker
	// Resume lets a StreamReader carry a message that is still arriving over
	// to the next Read, which then reports NoData instead of Error. Set it for
	// a UART, where bytes trickle in at the line rate.
	Resume bool
}

type base struct {
	buf   *ubx.Buffer
	sink  Sink
	log   *zap.Logger
	lock  sync.Locker
	noisy rate.Sometimes
}

func (b *base) init(o Options) {
	c := o.Capacity
	if c <= 0 {
		c = ubx.MaxMessageLen
	}
	if c < ubx.Overhead {
		c = ubx.Overhead
	}
	b.buf = ubx.NewBuffer(c)
	b.log = o.Logger
	if b.log == nil {
		b.log = zap.NewNop()
	}
	b.lock = o.Lock
	if b.lock == nil {
		b.lock = &sync.Mutex{}
	}
	b.noisy = rate.Sometimes{First: 3, Interval: 5 * time.Second}
}

func (b *base) SetSink(s Sink) { b.sink = s }

func (b *base) Message() []byte { return b.buf.Bytes() }

func (b *base) deliver() {
	if b.sink != nil {
		b.sink(b.buf.Bytes())
	}
}

// malformed logs bad traffic, throttled so a noisy bus cannot flood the log.
func (b *base) malformed(msg string, fields ...zap.Field) {
	b.noisy.Do(func() {
		b.log.Debug(msg, fields...)
	})
}

type step uint8

const (
	stepIdle step = iota
	stepMore
	stepDone
	stepBad
	stepOverflow
)

// assembler reconstructs one message from single bytes.
//
// The write index never exceeds the buffer capacity. A message longer than the
// buffer is still consumed up to its logical end so the stream stays in step,
// and is then reported as stepOverflow instead of being delivered truncated.
type assembler struct {
	buf   *ubx.Buffer
	idx   int
	total int
	text  bool
	over  bool
}

func (a *assembler) active() bool { return a.idx > 0 }

func (a *assembler) reset() {
	a.idx = 0
	a.total = 0
	a.over = false
}

func (a *assembler) push(b byte) step {
	if a.idx == 0 {
		switch b {
		case ubx.Sync1:
			a.text = false
		case ubx.NMEAStart:
			a.text = true
		case Filler:
			return stepIdle
		default:
			return stepBad
		}
	}

	i := a.idx
	if !a.buf.Put(i, b) {
		a.over = true
	}
	a.idx++

	if a.text {
		if b == ubx.NMEAEnd {
			return a.finish(a.idx)
		}
		return stepMore
	}

	switch i {
	case 1:
		if b != ubx.Sync2 {
			a.reset()
			return stepBad
		}
	case ubx.HeaderLen - 1:
		hdr, _ := a.buf.Window(0, ubx.HeaderLen)
		a.total = ubx.FrameLen(hdr)
	}
	if a.total > 0 && a.idx == a.total {
		return a.finish(a.total)
	}
	return stepMore
}

func (a *assembler) finish(n int) step {
	over := a.over
	a.reset()
	if over || a.buf.SetLen(n) != nil {
		a.buf.Reset()
		return stepOverflow
	}
	if !ubx.Verify(a.buf.Bytes()) {
		a.buf.Reset()
		return stepBad
	}
	return stepDone
}
