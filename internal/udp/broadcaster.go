package udp

import (
	"errors"
	"fmt"
	"net"
)

// MaxDatagram is the largest snapshot that fits one unfragmented datagram on
// a 1500 byte MTU link.
const MaxDatagram = 1472

var ErrDatagramTooLarge = errors.New("udp: datagram too large")

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

// Broadcaster writes receiver snapshots to one UDP destination.
type Broadcaster struct {
	dest string
	conn udpConn
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	return newBroadcaster(dest, net.ResolveUDPAddr, func(network string, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, nil, raddr)
	})
}

func newBroadcaster(
	dest string,
	resolve func(network, address string) (*net.UDPAddr, error),
	dial func(network string, raddr *net.UDPAddr) (udpConn, error),
) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %q: %w", dest, err)
	}
	conn, err := dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %s: %w", addr, err)
	}
	return &Broadcaster{dest: addr.String(), conn: conn}, nil
}

// Dest is the resolved destination address.
func (b *Broadcaster) Dest() string { return b.dest }

// Send writes payload as one datagram. Empty payloads are skipped.
func (b *Broadcaster) Send(payload []byte) error {
	switch {
	case len(payload) == 0:
		return nil
	case len(payload) > MaxDatagram:
		return fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, len(payload))
	case b.conn == nil:
		return net.ErrClosed
	}
	if _, err := b.conn.Write(payload); err != nil {
		return fmt.Errorf("udp: send to %s: %w", b.dest, err)
	}
	return nil
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
