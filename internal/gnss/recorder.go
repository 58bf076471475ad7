package gnss

import "ubxgnss/internal/transport"

// Recorder observes driver traffic. Implementations must be cheap; they are
// called inline on the polling path.
type Recorder interface {
	FrameSent(class, id byte)
	// MessageRead is called for every dispatched message with protocol "ubx"
	// or "nmea".
	MessageRead(protocol string)
	ReadOutcome(o transport.Outcome)
	// CommandResult is called once per exchange with one of ok, timeout,
	// nack, mismatch, oversize, busy or bus.
	CommandResult(class, id byte, result string)
}

type nopRecorder struct{}

func (nopRecorder) FrameSent(byte, byte) {}
func (nopRecorder) MessageRead(string) {}
func (nopRecorder) ReadOutcome(transport.Outcome) {}
func (nopRecorder) CommandResult(byte, byte, string) {}
