package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubxgnss/internal/ubx"
)

func TestBurstReader_FewerThanHeaderBytesIsNoData(t *testing.T) {
	five := 5
	bus := &fakeRegisterBus{stream: []byte{0xB5, 0x62, 0x05, 0x01, 0x02}, avail: &five}
	r := NewBurstReader(bus, Options{})

	assert.Equal(t, NoData, r.Read())
	assert.Equal(t, 0, bus.burstReads)
}

func TestBurstReader_CompleteMessageIsDispatched(t *testing.T) {
	frame := mustFrame(t, ubx.ClassACK, ubx.AckAck, []byte{ubx.ClassCFG, ubx.CfgMSG})
	bus := &fakeRegisterBus{stream: append(append([]byte(nil), frame...), 0xB5)}
	lock := &countingLock{}
	rec := &sinkRecorder{}
	r := NewBurstReader(bus, Options{Lock: lock})
	r.SetSink(rec.sink)

	require.Equal(t, Complete, r.Read())
	assert.Equal(t, frame, r.Message())
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, frame, rec.msgs[0])
	assert.Equal(t, 2, bus.burstReads)
	assert.Equal(t, 1, lock.locks)
	assert.Equal(t, 1, lock.unlocks)
}

func TestBurstReader_Errors(t *testing.T) {
	good := mustFrame(t, ubx.ClassNAV, ubx.NavSOL, make([]byte, 52))

	corrupt := append([]byte(nil), good...)
	corrupt[10] ^= 0x40

	oversize := []byte{0xB5, 0x62, 0x01, 0x07, 0xF5, 0x01}
	oversize = append(oversize, make([]byte, 20)...)

	cases := []struct {
		name       string
		bus        *fakeRegisterBus
		wantBursts int
	}{
		{name: "BadSync", bus: &fakeRegisterBus{stream: append([]byte{0x24, 0x47}, good[2:]...)}, wantBursts: 1},
		{name: "Checksum", bus: &fakeRegisterBus{stream: corrupt}, wantBursts: 2},
		{name: "Oversize", bus: &fakeRegisterBus{stream: oversize}, wantBursts: 1},
		{name: "CountQuery", bus: &fakeRegisterBus{availErr: errBus}, wantBursts: 0},
		{name: "ReadFails", bus: &fakeRegisterBus{stream: good, readErr: errBus}, wantBursts: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &sinkRecorder{}
			r := NewBurstReader(tc.bus, Options{})
			r.SetSink(rec.sink)
			assert.Equal(t, Error, r.Read())
			assert.Equal(t, tc.wantBursts, tc.bus.burstReads)
			assert.Empty(t, rec.msgs)
		})
	}
}

func TestBurstReader_SendWrapsBusError(t *testing.T) {
	bus := &fakeRegisterBus{writeErr: errBus}
	r := NewBurstReader(bus, Options{})
	err := r.Send([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrSend))
	assert.True(t, errors.Is(err, errBus))
}

func TestStreamReader_Messages(t *testing.T) {
	ubxFrame := mustFrame(t, ubx.ClassMON, ubx.MonHW, make([]byte, 60))
	nmea := []byte("$GNRMC,083559.00,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A*57\r\n")

	cases := []struct {
		name   string
		stream []byte
		want   []byte
	}{
		{name: "UBX", stream: ubxFrame, want: ubxFrame},
		{name: "NMEA", stream: nmea, want: nmea},
		{name: "LeadingFillerThenUBX", stream: append([]byte{0xFF, 0xFF}, ubxFrame...), want: ubxFrame},
		{name: "StopsAtFirstMessage", stream: append(append([]byte(nil), nmea...), ubxFrame...), want: nmea},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := &fakeByteStream{stream: tc.stream}
			rec := &sinkRecorder{}
			r := NewStreamReader(bus, Options{})
			r.SetSink(rec.sink)

			require.Equal(t, Complete, r.Read())
			assert.True(t, bytes.Equal(tc.want, r.Message()))
			require.Len(t, rec.msgs, 1)
			assert.Equal(t, 1, bus.begins)
			assert.Equal(t, 1, bus.ends)
		})
	}
}

func TestStreamReader_NoDataAndErrors(t *testing.T) {
	frame := mustFrame(t, ubx.ClassNAV, ubx.NavPOSLLH, make([]byte, 28))
	corrupt := append([]byte(nil), frame...)
	corrupt[len(corrupt)-1]++

	cases := []struct {
		name   string
		stream []byte
		want   Outcome
	}{
		{name: "Empty", stream: nil, want: NoData},
		{name: "AllFiller", stream: []byte{0xFF, 0xFF, 0xFF}, want: NoData},
		{name: "UnknownFirstByte", stream: []byte{0x42, 0xB5, 0x62}, want: Error},
		{name: "BadSecondSync", stream: []byte{0xB5, 0x00, 0x01}, want: Error},
		{name: "Unterminated", stream: frame[:len(frame)-3], want: Error},
		{name: "UnterminatedNMEA", stream: []byte("$GPGGA,1,2"), want: Error},
		{name: "Checksum", stream: corrupt, want: Error},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := &fakeByteStream{stream: tc.stream}
			rec := &sinkRecorder{}
			r := NewStreamReader(bus, Options{})
			r.SetSink(rec.sink)
			assert.Equal(t, tc.want, r.Read())
			assert.Empty(t, rec.msgs)
			assert.Equal(t, bus.begins, bus.ends)
		})
	}
}

func TestStreamReader_OverflowConsumesWholeMessage(t *testing.T) {
	frame := mustFrame(t, ubx.ClassNAV, ubx.NavPVT, make([]byte, 92))
	bus := &fakeByteStream{stream: frame}
	r := NewStreamReader(bus, Options{Capacity: 32})

	assert.Equal(t, Error, r.Read())
	assert.Equal(t, len(frame), bus.bytesRead)
	assert.Empty(t, bus.stream)
	assert.Equal(t, 1, bus.ends)

	// Stream stays in step for the next message.
	small := mustFrame(t, ubx.ClassACK, ubx.AckAck, []byte{6, 1})
	bus.stream = small
	require.Equal(t, Complete, r.Read())
	assert.Equal(t, small, r.Message())
}

func TestStreamReader_ResumeCarriesPartialMessage(t *testing.T) {
	frame := mustFrame(t, ubx.ClassNAV, ubx.NavPOSLLH, make([]byte, 28))
	nmea := []byte("$GPGGA,1,2*00\r\n")
	bus := &fakeByteStream{stream: frame[:4]}
	rec := &sinkRecorder{}
	r := NewStreamReader(bus, Options{Resume: true})
	r.SetSink(rec.sink)

	assert.Equal(t, NoData, r.Read())
	bus.stream = frame[4:20]
	assert.Equal(t, NoData, r.Read())
	bus.stream = append(append([]byte(nil), frame[20:]...), nmea[:3]...)
	require.Equal(t, Complete, r.Read())
	assert.Equal(t, frame, r.Message())

	// The NMEA head left queued after the frame is read next.
	assert.Equal(t, NoData, r.Read())
	bus.stream = nmea[3:]
	require.Equal(t, Complete, r.Read())
	assert.Equal(t, nmea, r.Message())
	assert.Len(t, rec.msgs, 2)
	assert.Equal(t, bus.begins, bus.ends)
}

func TestStreamReader_ResumeStillRejectsGarbage(t *testing.T) {
	bus := &fakeByteStream{stream: []byte{0xB5}}
	r := NewStreamReader(bus, Options{Resume: true})
	assert.Equal(t, NoData, r.Read())
	bus.stream = []byte{0x00, 0xB5, 0x62}
	assert.Equal(t, Error, r.Read())
	assert.Equal(t, []byte{0xB5, 0x62}, bus.stream)
}

func TestStreamReader_ReadErrorEndsTransaction(t *testing.T) {
	bus := &fakeByteStream{stream: []byte{0xB5, 0x62, 0x01}, readErrAt: 2}
	r := NewStreamReader(bus, Options{})
	assert.Equal(t, Error, r.Read())
	assert.Equal(t, 1, bus.ends)
}

func TestClockedReader_ReceiveOnlyFillerIsNoData(t *testing.T) {
	bus := &fakeClockedBus{}
	r := NewClockedReader(bus, Options{})

	assert.Equal(t, NoData, r.Read())
	assert.Equal(t, []byte{Filler}, bus.tx)
	assert.Equal(t, 1, bus.begins)
	assert.Equal(t, 1, bus.ends)
}

func TestClockedReader_ReceiveOnlyMessage(t *testing.T) {
	frame := mustFrame(t, ubx.ClassTIM, ubx.TimTP, make([]byte, 16))
	bus := &fakeClockedBus{rx: frame}
	rec := &sinkRecorder{}
	r := NewClockedReader(bus, Options{})
	r.SetSink(rec.sink)

	require.Equal(t, Complete, r.Read())
	assert.Equal(t, frame, r.Message())
	assert.Len(t, bus.tx, len(frame))
	require.Len(t, rec.msgs, 1)
}

func TestClockedReader_ReceiveOnlyErrors(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		bus := &fakeClockedBus{rx: []byte{0x00}}
		r := NewClockedReader(bus, Options{})
		assert.Equal(t, Error, r.Read())
		assert.Len(t, bus.tx, 1)
	})
	t.Run("CycleCap", func(t *testing.T) {
		bus := &fakeClockedBus{rx: []byte{'$', 'A'}, repeat: true}
		r := NewClockedReader(bus, Options{})
		assert.Equal(t, Error, r.Read())
		assert.Len(t, bus.tx, MaxCycles)
		assert.Equal(t, 1, bus.ends)
	})
	t.Run("ExchangeFails", func(t *testing.T) {
		bus := &fakeClockedBus{rx: []byte{0xB5, 0x62, 0x01}, failAfter: 2}
		r := NewClockedReader(bus, Options{})
		assert.Equal(t, Error, r.Read())
		assert.Equal(t, 1, bus.ends)
	})
}

func TestClockedReader_SendAbsorbsResponseStartedMidSend(t *testing.T) {
	cmd := mustFrame(t, ubx.ClassCFG, ubx.CfgMSG, ubx.PayloadCfgMSG(ubx.ClassNAV, ubx.NavPVT, 1))
	ack := mustFrame(t, ubx.ClassACK, ubx.AckAck, []byte{ubx.ClassCFG, ubx.CfgMSG})

	// The receiver starts answering on the fourth cycle, so its message runs
	// past the end of the command.
	rx := append([]byte{0xFF, 0xFF, 0xFF}, ack...)
	bus := &fakeClockedBus{rx: rx}
	rec := &sinkRecorder{}
	r := NewClockedReader(bus, Options{})
	r.SetSink(rec.sink)

	require.NoError(t, r.Send(cmd))
	assert.Len(t, bus.tx, 3+len(ack))
	assert.Equal(t, cmd, bus.tx[:len(cmd)])
	for _, b := range bus.tx[len(cmd):] {
		assert.Equal(t, Filler, b)
	}
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, ack, rec.msgs[0])
}

func TestClockedReader_SendWithSilentReceiver(t *testing.T) {
	cmd := mustFrame(t, ubx.ClassCFG, ubx.CfgRST, ubx.PayloadCfgRST(ubx.ResetHot))
	bus := &fakeClockedBus{}
	r := NewClockedReader(bus, Options{})

	require.NoError(t, r.Send(cmd))
	assert.Equal(t, cmd, bus.tx)
}

func TestClockedReader_SendIgnoresGarbage(t *testing.T) {
	cmd := mustFrame(t, ubx.ClassCFG, ubx.CfgRST, ubx.PayloadCfgRST(ubx.ResetHot))
	bus := &fakeClockedBus{rx: []byte{0x00, 0x13, 0x37}}
	r := NewClockedReader(bus, Options{})

	require.NoError(t, r.Send(cmd))
	assert.Len(t, bus.tx, len(cmd))
}

func TestClockedReader_SendCycleCap(t *testing.T) {
	bus := &fakeClockedBus{rx: []byte{'$', 'A'}, repeat: true}
	r := NewClockedReader(bus, Options{})

	require.NoError(t, r.Send([]byte{0xB5, 0x62}))
	assert.Len(t, bus.tx, MaxCycles)
}

func TestClockedReader_SendBusFailure(t *testing.T) {
	bus := &fakeClockedBus{failAfter: 1}
	r := NewClockedReader(bus, Options{})
	err := r.Send([]byte{0xB5, 0x62, 0x06})
	assert.True(t, errors.Is(err, ErrSend))
	assert.True(t, errors.Is(err, errBus))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "nodata", NoData.String())
	assert.Equal(t, "error", Error.String())
}
