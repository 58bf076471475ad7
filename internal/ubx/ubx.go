// Package ubx builds and validates u-blox UBX frames and decodes the message
// payloads the driver consumes.
//
// Frame layout:
//
//	[0xB5][0x62][class][id][lenLo][lenHi][payload...][ckA][ckB]
//
// The checksum is the 8-bit Fletcher pair defined by the UBX protocol. It is
// cheap to compute but does not detect every multi-byte adjacent corruption;
// that is a property of the wire format, not of this implementation.
package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Sync1 byte = 0xB5
	Sync2 byte = 0x62

	// NMEAStart begins every NMEA sentence the receiver interleaves with UBX.
	NMEAStart byte = '$'
	// NMEAEnd terminates every NMEA sentence.
	NMEAEnd byte = '\n'

	HeaderLen   = 6
	ChecksumLen = 2
	Overhead    = HeaderLen + ChecksumLen

	// MaxPayload caps both outbound payloads and the payload of any message
	// the driver is willing to receive.
	MaxPayload = 500
	// MaxMessageLen is the largest whole frame (header, payload, checksum).
	MaxMessageLen = MaxPayload + Overhead

	// AnyID matches every message id within a class when waiting for a message.
	AnyID byte = 0xFF
)

var (
	// ErrPayloadTooLarge reports a payload above MaxPayload.
	ErrPayloadTooLarge = errors.New("ubx: payload too large")
	// ErrMalformed reports bad sync bytes, a bad length field or a checksum mismatch.
	ErrMalformed = errors.New("ubx: malformed frame")
)

// Message is a decoded UBX frame. Payload aliases the frame it was decoded from.
type Message struct {
	Class   byte
	ID      byte
	Payload []byte
}

func (m Message) String() string {
	return fmt.Sprintf("0x%02X 0x%02X len=%d", m.Class, m.ID, len(m.Payload))
}

// Checksum computes the UBX checksum over data, which must span class through
// the end of the payload.
func Checksum(data []byte) (a, b byte) {
	for _, x := range data {
		a += x
		b += a
	}
	return a, b
}

// Encode builds a complete frame for the given class, id and payload.
func Encode(class, id byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayload)
	}
	frame := make([]byte, Overhead+len(payload))
	frame[0] = Sync1
	frame[1] = Sync2
	frame[2] = class
	frame[3] = id
	binary.LittleEndian.PutUint16(frame[4:6], uint16(len(payload)))
	copy(frame[HeaderLen:], payload)

	n := len(frame)
	frame[n-2], frame[n-1] = Checksum(frame[2 : n-2])
	return frame, nil
}

// Verify reports whether msg is acceptable as a received message.
//
// UBX frames must carry a matching checksum over class..payload. NMEA
// sentences are accepted unconditionally; the driver does not validate their
// checksum. Anything else is rejected.
func Verify(msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	switch msg[0] {
	case Sync1:
		if len(msg) < Overhead {
			return false
		}
		n := len(msg)
		a, b := Checksum(msg[2 : n-2])
		return a == msg[n-2] && b == msg[n-1]
	case NMEAStart:
		return true
	default:
		return false
	}
}

// Decode parses a complete UBX frame. It checks the sync pair, that the length
// field agrees with len(frame), and the checksum.
func Decode(frame []byte) (Message, error) {
	if len(frame) < Overhead {
		return Message{}, fmt.Errorf("%w: short frame (%d bytes)", ErrMalformed, len(frame))
	}
	if frame[0] != Sync1 || frame[1] != Sync2 {
		return Message{}, fmt.Errorf("%w: sync 0x%02X 0x%02X", ErrMalformed, frame[0], frame[1])
	}
	plen := int(binary.LittleEndian.Uint16(frame[4:6]))
	if plen+Overhead != len(frame) {
		return Message{}, fmt.Errorf("%w: length field %d does not match frame of %d bytes", ErrMalformed, plen, len(frame))
	}
	if !Verify(frame) {
		return Message{}, fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	}
	return Message{Class: frame[2], ID: frame[3], Payload: frame[HeaderLen : HeaderLen+plen]}, nil
}

// FrameLen returns the full frame length announced by a header, or 0 if hdr is
// shorter than HeaderLen.
func FrameLen(hdr []byte) int {
	if len(hdr) < HeaderLen {
		return 0
	}
	return int(binary.LittleEndian.Uint16(hdr[4:6])) + Overhead
}

// IsUBX reports whether msg starts with the UBX sync byte and is long enough to
// carry a class and id.
func IsUBX(msg []byte) bool {
	return len(msg) >= HeaderLen && msg[0] == Sync1
}

// Payload returns the payload section of a verified UBX frame.
func Payload(msg []byte) []byte {
	if len(msg) < Overhead {
		return nil
	}
	return msg[HeaderLen : len(msg)-ChecksumLen]
}
