package gnss

import (
	"errors"

	"ubxgnss/internal/ubx"
)

var (
	// ErrTimeout reports that no matching acknowledge or response arrived in time.
	ErrTimeout = errors.New("gnss: timed out waiting for receiver")
	// ErrNegativeAck reports an explicit rejection (ACK-NAK) by the receiver.
	ErrNegativeAck = errors.New("gnss: command rejected by receiver")
	// ErrAckMismatch reports an acknowledge for a different (class, id) than the
	// one in flight.
	ErrAckMismatch = errors.New("gnss: acknowledge for a different command")
	// ErrBus reports a failed bus primitive.
	ErrBus = errors.New("gnss: bus failure")
	// ErrBusy reports an attempt to start an exchange while another is pending.
	ErrBusy = errors.New("gnss: exchange already in progress")
	// ErrNotDetected reports a receiver that did not answer the identity poll.
	ErrNotDetected = errors.New("gnss: receiver not detected")
)

// result names err for metrics.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNegativeAck):
		return "nack"
	case errors.Is(err, ErrAckMismatch):
		return "mismatch"
	case errors.Is(err, ubx.ErrPayloadTooLarge):
		return "oversize"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "bus"
	}
}
