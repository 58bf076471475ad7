package ubx

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow reports a request for more bytes than a Buffer holds.
var ErrBufferOverflow = errors.New("ubx: buffer overflow")

// Buffer is a fixed-capacity receive buffer. Writes past the capacity are
// refused rather than performed, and windows larger than the capacity are
// rejected up front.
type Buffer struct {
	data []byte
	n    int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = MaxMessageLen
	}
	return &Buffer{data: make([]byte, capacity)}
}

func (b *Buffer) Cap() int { return len(b.data) }

// Len is the length of the message last committed with SetLen.
func (b *Buffer) Len() int { return b.n }

// Bytes returns the committed message. It is only valid until the buffer is
// written again.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

func (b *Buffer) Reset() { b.n = 0 }

// Put stores v at index i. It returns false, and writes nothing, when i is
// outside the capacity.
func (b *Buffer) Put(i int, v byte) bool {
	if i < 0 || i >= len(b.data) {
		return false
	}
	b.data[i] = v
	return true
}

// Window returns data[from:to] for a burst read, or ErrBufferOverflow when the
// range does not fit.
func (b *Buffer) Window(from, to int) ([]byte, error) {
	if from < 0 || to < from || to > len(b.data) {
		return nil, fmt.Errorf("%w: window [%d:%d] exceeds capacity %d", ErrBufferOverflow, from, to, len(b.data))
	}
	return b.data[from:to], nil
}

// SetLen commits the first n bytes as the current message.
func (b *Buffer) SetLen(n int) error {
	if n < 0 || n > len(b.data) {
		return fmt.Errorf("%w: length %d exceeds capacity %d", ErrBufferOverflow, n, len(b.data))
	}
	b.n = n
	return nil
}
