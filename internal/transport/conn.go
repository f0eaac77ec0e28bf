// Package transport adapts real and adversarial datagram sockets to the
// narrow PacketConn interface the sender and receiver depend on. The socket
// itself is an assumed-given collaborator (§1): this package supplies the
// two concrete, runnable instantiations a Go program needs — one over
// net.Conn for the client side, one over net.PacketConn for the server side
// — plus the timeout/decode translation both sides require.
package transport

import (
	"errors"
	"net"
	"time"

	"nastygram/internal/wire"
)

// ErrTimeout is returned by ReadPacket when the bounded socket read expires
// without a datagram arriving. Callers treat this as a recoverable,
// local-retry condition (§7 SocketTimeout), never as fatal.
var ErrTimeout = errors.New("transport: read timed out")

// ErrNoPeer is returned by ServerConn.SendPacket before any datagram has
// been received, since the server learns its peer's address from the first
// inbound packet (there is no listen-time handshake in this protocol).
var ErrNoPeer = errors.New("transport: no peer address known yet")

// PacketConn is the narrow socket interface the protocol core consumes: one
// packet in, one packet out, each call bounded by a read timeout configured
// at construction time.
type PacketConn interface {
	ReadPacket() (wire.Packet, error)
	SendPacket(p wire.Packet) error
}

// ClientConn is a PacketConn backed by a connected net.Conn (as returned by
// net.Dial("udp", ...)), the shape the sender uses against a single server.
type ClientConn struct {
	conn    net.Conn
	timeout time.Duration
	buf     []byte
}

// NewClientConn wraps conn with the given per-read timeout.
func NewClientConn(conn net.Conn, timeout time.Duration) *ClientConn {
	return &ClientConn{conn: conn, timeout: timeout, buf: make([]byte, wire.MaxFrameSize)}
}

// ReadPacket blocks for at most the configured timeout waiting for one
// datagram, decoding it on arrival.
func (c *ClientConn) ReadPacket() (wire.Packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return wire.Packet{}, err
	}

	n, err := c.conn.Read(c.buf)
	if err != nil {
		if isTimeout(err) {
			return wire.Packet{}, ErrTimeout
		}
		return wire.Packet{}, err
	}

	return wire.Decode(c.buf[:n])
}

// SendPacket encodes and transmits p to the connected peer.
func (c *ClientConn) SendPacket(p wire.Packet) error {
	buf, err := wire.Encode(p)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(buf)
	return err
}

// Close releases the underlying socket.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

// ServerConn is a PacketConn backed by an unconnected net.PacketConn (as
// returned by net.ListenUDP), which learns the address of its single peer
// from the first datagram it reads (per the Non-goal of a single session).
type ServerConn struct {
	conn    net.PacketConn
	timeout time.Duration
	buf     []byte
	peer    net.Addr
}

// NewServerConn wraps conn with the given per-read timeout.
func NewServerConn(conn net.PacketConn, timeout time.Duration) *ServerConn {
	return &ServerConn{conn: conn, timeout: timeout, buf: make([]byte, wire.MaxFrameSize)}
}

// ReadPacket blocks for at most the configured timeout waiting for one
// datagram, recording its source address as the current peer.
func (s *ServerConn) ReadPacket() (wire.Packet, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return wire.Packet{}, err
	}

	n, addr, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		if isTimeout(err) {
			return wire.Packet{}, ErrTimeout
		}
		return wire.Packet{}, err
	}

	s.peer = addr
	return wire.Decode(s.buf[:n])
}

// SendPacket encodes and transmits p to the last-seen peer address.
func (s *ServerConn) SendPacket(p wire.Packet) error {
	if s.peer == nil {
		return ErrNoPeer
	}
	buf, err := wire.Encode(p)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteTo(buf, s.peer)
	return err
}

// Close releases the underlying socket.
func (s *ServerConn) Close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
