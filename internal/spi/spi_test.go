package spi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	rx    []byte
	tx    []byte
	keeps []bool
	err   error
}

func (f *fakeConn) Transfer(w, r []byte, keepCS bool) error {
	if f.err != nil {
		return f.err
	}
	f.keeps = append(f.keeps, keepCS)
	for i := range w {
		f.tx = append(f.tx, w[i])
		r[i] = 0xFF
		if len(f.rx) > 0 {
			r[i] = f.rx[0]
			f.rx = f.rx[1:]
		}
	}
	return nil
}

type fakeCS struct {
	calls []string
	err   error
}

func (c *fakeCS) Select() error {
	c.calls = append(c.calls, "select")
	return c.err
}

func (c *fakeCS) Deselect() error {
	c.calls = append(c.calls, "deselect")
	return c.err
}

func TestBus_GPIOChipSelect(t *testing.T) {
	conn := &fakeConn{rx: []byte{0xB5, 0x62}}
	cs := &fakeCS{}
	b := New(conn, cs)

	require.NoError(t, b.Begin())
	v1, err := b.Exchange(0x01)
	require.NoError(t, err)
	v2, err := b.Exchange(0x02)
	require.NoError(t, err)
	v3, err := b.Exchange(0xFF)
	require.NoError(t, err)
	require.NoError(t, b.End())

	assert.Equal(t, []byte{0xB5, 0x62, 0xFF}, []byte{v1, v2, v3})
	assert.Equal(t, []byte{0x01, 0x02, 0xFF}, conn.tx)
	assert.Equal(t, []string{"select", "deselect"}, cs.calls)
	assert.Equal(t, []bool{false, false, false}, conn.keeps)
}

func TestBus_ControllerChipSelectHeldAcrossBytes(t *testing.T) {
	conn := &fakeConn{}
	b := New(conn, nil)

	require.NoError(t, b.Begin())
	_, err := b.Exchange(0xAA)
	require.NoError(t, err)
	_, err = b.Exchange(0xBB)
	require.NoError(t, err)
	require.NoError(t, b.End())

	assert.Equal(t, []bool{true, true, false}, conn.keeps)
}

func TestBus_Errors(t *testing.T) {
	boom := errors.New("eio")

	_, err := New(&fakeConn{err: boom}, nil).Exchange(0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, New(&fakeConn{err: boom}, nil).End(), boom)
	assert.ErrorIs(t, New(&fakeConn{}, &fakeCS{err: boom}).Begin(), boom)
	assert.ErrorIs(t, New(&fakeConn{}, &fakeCS{err: boom}).End(), boom)
}
