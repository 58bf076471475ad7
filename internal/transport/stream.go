package transport

import (
	"fmt"

	"go.uber.org/zap"
)

// StreamReader reads byte by byte inside one transaction sized by the queued
// byte count, and stops at the first message boundary.
type StreamReader struct {
	base
	bus    ByteStream
	asm    assembler
	resume bool
}

func NewStreamReader(bus ByteStream, o Options) *StreamReader {
	r := &StreamReader{bus: bus, resume: o.Resume}
	r.init(o)
	r.asm.buf = r.buf
	return r
}

func (r *StreamReader) Send(frame []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.bus.Write(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

func (r *StreamReader) Read() Outcome {
	r.lock.Lock()
	defer r.lock.Unlock()

	avail, err := r.bus.Available()
	if err != nil {
		r.log.Debug("byte count query failed", zap.Error(err))
		return Error
	}
	if avail <= 0 {
		return NoData
	}

	if err := r.bus.Begin(avail); err != nil {
		r.log.Debug("read transaction failed to start", zap.Error(err))
		return Error
	}
	defer func() {
		if err := r.bus.End(); err != nil {
			r.log.Debug("read transaction failed to end", zap.Error(err))
		}
	}()

	if !r.resume {
		r.asm.reset()
	}
	for i := 0; i < avail; i++ {
		b, err := r.bus.ReadByte()
		if err != nil {
			r.asm.reset()
			r.log.Debug("byte read failed", zap.Int("index", i), zap.Error(err))
			return Error
		}
		switch r.asm.push(b) {
		case stepDone:
			r.deliver()
			return Complete
		case stepBad:
			r.malformed("not the start of a UBX or NMEA message", zap.Uint8("byte", b), zap.Int("index", i))
			return Error
		case stepOverflow:
			r.malformed("message exceeds buffer", zap.Int("cap", r.buf.Cap()))
			return Error
		}
	}

	if r.asm.active() {
		if r.resume {
			return NoData
		}
		r.asm.reset()
		r.malformed("message not terminated within queued bytes", zap.Int("queued", avail))
		return Error
	}
	return NoData
}
