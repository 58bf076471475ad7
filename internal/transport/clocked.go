package transport

import (
	"fmt"

	"go.uber.org/zap"
)

// MaxCycles bounds one clocked transaction.
const MaxCycles = 10000

// ClockedReader drives a full-duplex bus. Sending and receiving share one
// transaction: each cycle clocks out the next transmit byte (or Filler) and
// feeds the received byte to the message assembler.
type ClockedReader struct {
	base
	bus     ClockedBus
	asm     assembler
	lastErr error
}

func NewClockedReader(bus ClockedBus, o Options) *ClockedReader {
	r := &ClockedReader{bus: bus}
	r.init(o)
	r.asm.buf = r.buf
	return r
}

// Send transmits frame while absorbing whatever the receiver clocks back.
// Messages that complete during the send are delivered to the sink.
func (r *ClockedReader) Send(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if r.transact(frame) != Complete {
		return fmt.Errorf("%w: %w", ErrSend, r.lastErr)
	}
	return nil
}

// Read performs a receive-only transaction.
func (r *ClockedReader) Read() Outcome {
	return r.transact(nil)
}

// transact runs one chip-select scoped transaction.
//
// Receive-only: returns NoData if the first byte is Filler, Complete once a
// message is reconstructed, Error on a malformed byte, overflow or cycle cap.
//
// Send: returns Complete once every byte of tx is out and no message is in
// flight, or at the cycle cap. Receive errors during a send are logged and do
// not fail the send.
func (r *ClockedReader) transact(tx []byte) Outcome {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.lastErr = nil
	if err := r.bus.Begin(); err != nil {
		r.lastErr = err
		r.log.Debug("bus select failed", zap.Error(err))
		return Error
	}
	defer func() {
		if err := r.bus.End(); err != nil {
			r.log.Debug("bus deselect failed", zap.Error(err))
		}
	}()

	r.asm.reset()
	rxOnly := len(tx) == 0

	for i := 0; (i < len(tx) || r.asm.active() || rxOnly) && i < MaxCycles; i++ {
		out := Filler
		if i < len(tx) {
			out = tx[i]
		}
		in, err := r.bus.Exchange(out)
		if err != nil {
			r.lastErr = err
			r.asm.reset()
			r.log.Debug("exchange failed", zap.Int("cycle", i), zap.Error(err))
			return Error
		}
		sent := i >= len(tx)-1

		switch r.asm.push(in) {
		case stepIdle:
			if rxOnly {
				return NoData
			}
		case stepDone:
			r.deliver()
			if sent {
				return Complete
			}
		case stepBad:
			r.malformed("not the start of a UBX or NMEA message", zap.Uint8("byte", in), zap.Int("cycle", i))
			if rxOnly {
				return Error
			}
		case stepOverflow:
			r.malformed("message exceeds buffer", zap.Int("cap", r.buf.Cap()))
			if rxOnly {
				return Error
			}
		}
	}

	if rxOnly {
		r.asm.reset()
		r.malformed("cycle limit reached before message end", zap.Int("cycles", MaxCycles))
		return Error
	}
	if r.asm.active() {
		r.asm.reset()
		r.log.Debug("send finished with a partial message abandoned", zap.Int("cycles", MaxCycles))
	}
	return Complete
}
