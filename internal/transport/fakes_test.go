package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"ubxgnss/internal/ubx"
)

var errBus = errors.New("bus down")

func mustFrame(t *testing.T, class, id byte, payload []byte) []byte {
	t.Helper()
	f, err := ubx.Encode(class, id, payload)
	require.NoError(t, err)
	return f
}

type countingLock struct {
	locks, unlocks int
}

func (l *countingLock) Lock()   { l.locks++ }
func (l *countingLock) Unlock() { l.unlocks++ }

// fakeRegisterBus models the DDC register map: Available reports the queued
// stream length unless avail is set.
type fakeRegisterBus struct {
	stream     []byte
	avail      *int
	availErr   error
	readErr    error
	writeErr   error
	burstReads int
	written    [][]byte
}

func (f *fakeRegisterBus) Available() (int, error) {
	if f.availErr != nil {
		return 0, f.availErr
	}
	if f.avail != nil {
		return *f.avail, nil
	}
	return len(f.stream), nil
}

func (f *fakeRegisterBus) ReadBurst(p []byte) error {
	f.burstReads++
	if f.readErr != nil {
		return f.readErr
	}
	n := copy(p, f.stream)
	f.stream = f.stream[n:]
	for i := n; i < len(p); i++ {
		p[i] = Filler
	}
	return nil
}

func (f *fakeRegisterBus) WriteBurst(p []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), p...))
	return nil
}

// fakeByteStream models a byte-at-a-time bus.
type fakeByteStream struct {
	stream    []byte
	avail     *int
	begins    int
	ends      int
	bytesRead int
	readErrAt int
	written   []byte
}

func (f *fakeByteStream) Available() (int, error) {
	if f.avail != nil {
		return *f.avail, nil
	}
	return len(f.stream), nil
}

func (f *fakeByteStream) Begin(int) error {
	f.begins++
	return nil
}

func (f *fakeByteStream) ReadByte() (byte, error) {
	f.bytesRead++
	if f.readErrAt > 0 && f.bytesRead == f.readErrAt {
		return 0, errBus
	}
	if len(f.stream) == 0 {
		return Filler, nil
	}
	b := f.stream[0]
	f.stream = f.stream[1:]
	return b, nil
}

func (f *fakeByteStream) End() error {
	f.ends++
	return nil
}

func (f *fakeByteStream) Write(p []byte) error {
	f.written = append(f.written, p...)
	return nil
}

// fakeClockedBus returns rx bytes in order and Filler once they run out. With
// repeat set, the last rx byte is returned forever instead.
type fakeClockedBus struct {
	rx        []byte
	repeat    bool
	tx        []byte
	begins    int
	ends      int
	failAfter int
}

func (f *fakeClockedBus) Begin() error {
	f.begins++
	return nil
}

func (f *fakeClockedBus) Exchange(out byte) (byte, error) {
	if f.failAfter > 0 && len(f.tx) == f.failAfter {
		return 0, errBus
	}
	f.tx = append(f.tx, out)
	if len(f.rx) == 0 {
		return Filler, nil
	}
	b := f.rx[0]
	if !f.repeat || len(f.rx) > 1 {
		f.rx = f.rx[1:]
	}
	return b, nil
}

func (f *fakeClockedBus) End() error {
	f.ends++
	return nil
}

type sinkRecorder struct {
	msgs [][]byte
}

func (s *sinkRecorder) sink(msg []byte) {
	s.msgs = append(s.msgs, append([]byte(nil), msg...))
}
