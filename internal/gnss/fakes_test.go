package gnss

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ubxgnss/internal/transport"
	"ubxgnss/internal/ubx"
)

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
}

func useFakeClock(t *testing.T) *fakeClock {
	t.Helper()
	c := &fakeClock{t: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)}
	oldNow, oldSleep := now, sleep
	now, sleep = c.Now, c.Sleep
	t.Cleanup(func() { now, sleep = oldNow, oldSleep })
	return c
}

// errRead in the read queue makes Read return transport.Error.
var errRead = []byte{}

// fakeTransport hands out queued messages, one per Read. onSend may enqueue
// the receiver's answer to a frame.
type fakeTransport struct {
	sink      transport.Sink
	queue     [][]byte
	msg       []byte
	sent      [][]byte
	sendErr   error
	readCalls int
	onSend    func(f *fakeTransport, frame []byte)

	clock    *fakeClock
	readCost time.Duration
}

func (f *fakeTransport) SetSink(s transport.Sink) { f.sink = s }

func (f *fakeTransport) Send(frame []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), frame...))
	if f.onSend != nil {
		f.onSend(f, frame)
	}
	return nil
}

func (f *fakeTransport) Read() transport.Outcome {
	f.readCalls++
	if f.clock != nil {
		f.clock.t = f.clock.t.Add(f.readCost)
	}
	if len(f.queue) == 0 {
		return transport.NoData
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	if len(m) == 0 {
		return transport.Error
	}
	f.msg = m
	if f.sink != nil {
		f.sink(m)
	}
	return transport.Complete
}

func (f *fakeTransport) Message() []byte { return f.msg }

func (f *fakeTransport) push(msgs ...[]byte) { f.queue = append(f.queue, msgs...) }

func frame(t *testing.T, class, id byte, payload []byte) []byte {
	t.Helper()
	b, err := ubx.Encode(class, id, payload)
	require.NoError(t, err)
	return b
}

func ack(t *testing.T, class, id byte) []byte {
	return frame(t, ubx.ClassACK, ubx.AckAck, []byte{class, id})
}

func nak(t *testing.T, class, id byte) []byte {
	return frame(t, ubx.ClassACK, ubx.AckNak, []byte{class, id})
}

func monVER(t *testing.T) []byte {
	p := make([]byte, 40)
	copy(p, "ROM SPG 5.10 (7b202e)")
	copy(p[30:], "00190000")
	return frame(t, ubx.ClassMON, ubx.MonVER, p)
}

func putI32(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) }

func pvtPayload() []byte {
	p := make([]byte, 92)
	binary.LittleEndian.PutUint32(p[0:], 345600)
	binary.LittleEndian.PutUint16(p[4:], 2024)
	p[6], p[7], p[8], p[9], p[10] = 3, 14, 12, 30, 5
	p[11] = 0x07
	p[20] = byte(ubx.Fix3D)
	p[21] = 0x01
	p[23] = 11
	putI32(p[24:], 83456789)
	putI32(p[28:], 471234567)
	putI32(p[32:], 512000)
	putI32(p[36:], 464000)
	putI32(p[48:], 1000)
	putI32(p[52:], -2000)
	putI32(p[56:], 300)
	putI32(p[60:], 2236)
	binary.LittleEndian.PutUint16(p[76:], 120)
	return p
}

// receiver answers like a healthy receiver: CFG commands other than CFG-RST
// are acknowledged, empty-payload polls get the canned response.
type receiver struct {
	t         *testing.T
	responses map[[2]byte][]byte
	nak       map[[2]byte]bool
}

func newReceiver(t *testing.T) *receiver {
	return &receiver{
		t: t,
		responses: map[[2]byte][]byte{
			{ubx.ClassMON, ubx.MonVER}: monVER(t),
		},
		nak: map[[2]byte]bool{},
	}
}

func (r *receiver) onSend(f *fakeTransport, b []byte) {
	msg, err := ubx.Decode(b)
	require.NoError(r.t, err)
	key := [2]byte{msg.Class, msg.ID}
	switch {
	case msg.Class == ubx.ClassCFG && msg.ID == ubx.CfgRST:
	case r.nak[key]:
		f.push(nak(r.t, msg.Class, msg.ID))
	case len(msg.Payload) == 0:
		if resp, ok := r.responses[key]; ok {
			f.push(resp)
		}
	case msg.Class == ubx.ClassCFG:
		f.push(ack(r.t, msg.Class, msg.ID))
	}
}

type fakeReset struct {
	calls []string
}

func (r *fakeReset) Assert() error {
	r.calls = append(r.calls, "assert")
	return nil
}

func (r *fakeReset) Release() error {
	r.calls = append(r.calls, "release")
	return nil
}

type fakeRecorder struct {
	sent     int
	read     map[string]int
	outcomes map[transport.Outcome]int
	results  []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{read: map[string]int{}, outcomes: map[transport.Outcome]int{}}
}

func (r *fakeRecorder) FrameSent(byte, byte) { r.sent++ }
func (r *fakeRecorder) MessageRead(p string) { r.read[p]++ }
func (r *fakeRecorder) ReadOutcome(o transport.Outcome) { r.outcomes[o]++ }
func (r *fakeRecorder) CommandResult(_, _ byte, res string) { r.results = append(r.results, res) }
