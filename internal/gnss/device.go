// Package gnss drives a u-blox receiver over any transport.Transport.
//
// A Device is single-threaded and cooperative: every blocking call polls the
// transport against a deadline and there are no background goroutines. Every
// message reconstructed by the transport, solicited or not, is applied to the
// Device's State before the polling loop looks at it. Service wraps a Device
// in an owner goroutine for long-running processes.
package gnss

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ubxgnss/internal/transport"
	"ubxgnss/internal/ubx"
)

// Test seams.
var (
	now   = time.Now
	sleep = time.Sleep
)

const (
	DefaultBootTime     = time.Second
	DefaultPollInterval = time.Millisecond

	// ResetPulse is the minimum reset line assertion width.
	ResetPulse = 100 * time.Millisecond
)

// ResetLine is the receiver's active-low hardware reset.
type ResetLine interface {
	Assert() error
	Release() error
}

// Options configures a Device. The zero value is usable.
type Options struct {
	Logger   *zap.Logger
	Recorder Recorder
	// Reset is required only for HardwareReset.
	Reset ResetLine
	// BootTime is how long the receiver needs after a reset before it answers.
	BootTime time.Duration
	// PollInterval is the pause between read attempts that produced no
	// message while waiting for an acknowledge or response.
	PollInterval time.Duration
}

// Device is one receiver reached through one transport, speaking the
// configuration dialect of one Variant.
type Device struct {
	tr      transport.Transport
	variant Variant
	log     *zap.Logger
	rec     Recorder
	reset   ResetLine

	bootTime time.Duration
	poll     time.Duration

	pending atomic.Bool
	resp    []byte

	boot    BootState
	resetAt time.Time

	mu       sync.RWMutex
	state    State
	firmware ubx.Version
}

// New attaches a Device to tr. The Device becomes tr's message sink.
func New(tr transport.Transport, variant Variant, o Options) *Device {
	d := &Device{
		tr:       tr,
		variant:  variant,
		log:      o.Logger,
		rec:      o.Recorder,
		reset:    o.Reset,
		bootTime: o.BootTime,
		poll:     o.PollInterval,
		state:    newState(),
	}
	if d.variant == nil {
		d.variant = Gen8{}
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.rec == nil {
		d.rec = nopRecorder{}
	}
	if d.bootTime <= 0 {
		d.bootTime = DefaultBootTime
	}
	if d.poll <= 0 {
		d.poll = DefaultPollInterval
	}
	tr.SetSink(d.dispatch)
	return d
}

// Variant returns the receiver generation the Device was built with.
func (d *Device) Variant() Variant { return d.variant }

// State returns a copy of the latest telemetry.
func (d *Device) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Firmware returns the MON-VER identity read by the last successful Begin.
func (d *Device) Firmware() ubx.Version {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firmware
}

func (d *Device) dispatch(msg []byte) {
	proto := "ubx"
	if msg[0] == ubx.NMEAStart {
		proto = "nmea"
	}
	d.rec.MessageRead(proto)

	d.mu.Lock()
	changed := Dispatch(&d.state, msg)
	d.mu.Unlock()

	if changed && ubx.IsUBX(msg) {
		d.log.Debug("state updated", zap.Uint8("class", msg[2]), zap.Uint8("id", msg[3]))
	}
}

func (d *Device) read() transport.Outcome {
	o := d.tr.Read()
	d.rec.ReadOutcome(o)
	return o
}

// errorBurst is how many failed reads in a row Update retries without pausing.
// A byte stream joined mid-message fails once per stray byte until it
// resynchronizes.
const errorBurst = 256

// Update drains messages from the receiver and returns how many were read.
//
// A zero timeout reads at most once. Otherwise Update keeps reading until the
// timeout elapses or the queue runs dry after at least one message was read.
// Empty reads before the first message pause for the poll interval, as do
// failed reads beyond errorBurst in a row.
func (d *Device) Update(timeout time.Duration) int {
	start := now()
	read, failed := 0, 0
	for timeout == 0 || now().Sub(start) <= timeout {
		switch d.read() {
		case transport.Complete:
			read++
			failed = 0
			if timeout == 0 {
				return read
			}
		case transport.Error:
			if timeout == 0 {
				return read
			}
			failed++
			if failed >= errorBurst {
				sleep(d.poll)
			}
		case transport.NoData:
			if read > 0 || timeout == 0 {
				return read
			}
			sleep(d.poll)
		}
	}
	return read
}

// Command is one outbound UBX exchange.
type Command struct {
	Class   byte
	ID      byte
	Payload []byte
	// WantAck waits for ACK-ACK/ACK-NAK for (Class, ID).
	WantAck bool
	// WantResponse waits for a message of (Class, ID), which is then available
	// from Response.
	WantResponse bool
	// Timeout bounds each wait. Zero means a single read attempt.
	Timeout time.Duration
}

// Do sends cmd and waits for what it asks for.
//
// At most one exchange may be pending per Device; a concurrent Do fails with
// ErrBusy. An oversize payload fails with ubx.ErrPayloadTooLarge before any
// bus I/O. A negative acknowledge fails immediately with ErrNegativeAck, and
// an acknowledge for another command fails with ErrAckMismatch. No retries.
func (d *Device) Do(cmd Command) error {
	err := d.do(cmd)
	d.rec.CommandResult(cmd.Class, cmd.ID, result(err))
	if err != nil {
		d.log.Warn("command failed",
			zap.Uint8("class", cmd.Class),
			zap.Uint8("id", cmd.ID),
			zap.Duration("timeout", cmd.Timeout),
			zap.Error(err))
	}
	return err
}

// Execute is Do reduced to success or failure.
func (d *Device) Execute(cmd Command) bool {
	return d.Do(cmd) == nil
}

func (d *Device) do(cmd Command) error {
	frame, err := ubx.Encode(cmd.Class, cmd.ID, cmd.Payload)
	if err != nil {
		return err
	}
	if !d.pending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer d.pending.Store(false)

	d.resp = d.resp[:0]
	if err := d.tr.Send(frame); err != nil {
		return fmt.Errorf("%w: send 0x%02X 0x%02X: %w", ErrBus, cmd.Class, cmd.ID, err)
	}
	d.rec.FrameSent(cmd.Class, cmd.ID)

	if cmd.WantAck {
		if err := d.awaitAck(cmd.Class, cmd.ID, cmd.Timeout); err != nil {
			return err
		}
	}
	if cmd.WantResponse {
		msg, err := d.awaitMessage(cmd.Class, cmd.ID, cmd.Timeout)
		if err != nil {
			return err
		}
		d.resp = append(d.resp[:0], msg...)
	}
	return nil
}

// Response returns the message that satisfied the last WantResponse command.
// It is valid until the next command.
func (d *Device) Response() []byte { return d.resp }

func (d *Device) awaitAck(class, id byte, timeout time.Duration) error {
	msg, err := d.awaitMessage(ubx.ClassACK, ubx.AnyID, timeout)
	if err != nil {
		return fmt.Errorf("awaiting ack for 0x%02X 0x%02X: %w", class, id, err)
	}
	if msg[3] == ubx.AckNak {
		return fmt.Errorf("0x%02X 0x%02X: %w", class, id, ErrNegativeAck)
	}
	ackClass, ackID, err := ubx.ParseAck(ubx.Payload(msg))
	if err != nil || ackClass != class || ackID != id {
		return fmt.Errorf("%w: sent 0x%02X 0x%02X, got ack for 0x%02X 0x%02X", ErrAckMismatch, class, id, ackClass, ackID)
	}
	return nil
}

// awaitMessage polls until a UBX message of class (and id, unless AnyID)
// arrives. Every message read is dispatched by the transport first.
func (d *Device) awaitMessage(class, id byte, timeout time.Duration) ([]byte, error) {
	start := now()
	for {
		if d.read() == transport.Complete {
			msg := d.tr.Message()
			if ubx.IsUBX(msg) && msg[2] == class && (id == ubx.AnyID || msg[3] == id) {
				return msg, nil
			}
		} else if timeout > 0 {
			sleep(d.poll)
		}

		elapsed := now().Sub(start)
		if timeout == 0 || elapsed > timeout {
			return nil, fmt.Errorf("%w: 0x%02X 0x%02X after %s", ErrTimeout, class, id, elapsed)
		}
	}
}
