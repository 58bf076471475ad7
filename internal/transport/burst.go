package transport

import (
	"fmt"

	"go.uber.org/zap"

	"ubxgnss/internal/ubx"
)

// BurstReader polls the queued byte count, then burst-reads one whole frame.
// It keeps no state across calls.
type BurstReader struct {
	base
	bus RegisterBus
}

func NewBurstReader(bus RegisterBus, o Options) *BurstReader {
	r := &BurstReader{bus: bus}
	r.init(o)
	return r
}

func (r *BurstReader) Send(frame []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.bus.WriteBurst(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

func (r *BurstReader) Read() Outcome {
	r.lock.Lock()
	defer r.lock.Unlock()

	avail, err := r.bus.Available()
	if err != nil {
		r.log.Debug("byte count query failed", zap.Error(err))
		return Error
	}
	if avail < ubx.HeaderLen {
		return NoData
	}

	hdr, _ := r.buf.Window(0, ubx.HeaderLen)
	if err := r.bus.ReadBurst(hdr); err != nil {
		r.log.Debug("header read failed", zap.Error(err))
		return Error
	}
	if hdr[0] != ubx.Sync1 || hdr[1] != ubx.Sync2 {
		r.malformed("bad sync bytes", zap.Uint8("b0", hdr[0]), zap.Uint8("b1", hdr[1]))
		return Error
	}

	total := ubx.FrameLen(hdr)
	body, err := r.buf.Window(ubx.HeaderLen, total)
	if err != nil {
		r.malformed("message exceeds buffer", zap.Int("len", total), zap.Int("cap", r.buf.Cap()))
		return Error
	}
	if err := r.bus.ReadBurst(body); err != nil {
		r.log.Debug("body read failed", zap.Error(err))
		return Error
	}

	_ = r.buf.SetLen(total)
	if !ubx.Verify(r.buf.Bytes()) {
		r.buf.Reset()
		r.malformed("checksum mismatch", zap.Uint8("class", hdr[2]), zap.Uint8("id", hdr[3]))
		return Error
	}
	r.deliver()
	return Complete
}
