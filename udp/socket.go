// Package udp wraps one bound, non-blocking UDP socket in two complementary
// access patterns: an unbounded stream of received datagrams (Incoming) and
// per-call asynchronous send operations (Send). Payloads are opaque; the
// package does no framing, retransmission or flow control.
package udp

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/gramnet/utils/log"
)

// Stats holds a socket's monotonic transfer counters.
type Stats struct {
	// Received counts datagrams yielded by the socket's incoming streams.
	Received int64
	// Sent counts datagrams accepted by the OS for transmission.
	Sent          int64
	BytesReceived int64
	BytesSent     int64
}

// Socket is a bound UDP socket. The one underlying socket is shared by every
// incoming stream and send operation derived from it; writes are serialized
// through a single dispatcher goroutine, reads race per kernel delivery (each
// arriving datagram is handed to exactly one concurrent reader).
type Socket struct {
	conn *net.UDPConn
	opts options

	out *dispatcher

	received      atomic.Int64
	sent          atomic.Int64
	bytesReceived atomic.Int64
	bytesSent     atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// Bind resolves address to one or more candidate addresses and binds a UDP
// socket to the first candidate that accepts it. When every candidate is
// rejected the last bind error is returned; when resolution yields zero
// candidates an invalid-input error is returned instead.
func Bind(address string, opts ...Option) (*Socket, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	addrs, err := resolveAddrs(o.network, address)
	if err != nil {
		return nil, err
	}

	var conn *net.UDPConn
	var lastErr error
	for _, addr := range addrs {
		conn, lastErr = listen(o, addr)
		if lastErr == nil {
			break
		}
		conn = nil
	}
	if conn == nil {
		if lastErr == nil {
			lastErr = errNoBindAddresses
		}
		return nil, lastErr
	}

	if o.readBuffer > 0 {
		if err := conn.SetReadBuffer(o.readBuffer); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "udp: set read buffer")
		}
	}
	if o.writeBuffer > 0 {
		if err := conn.SetWriteBuffer(o.writeBuffer); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "udp: set write buffer")
		}
	}

	s := &Socket{conn: conn, opts: o}
	s.out = newDispatcher(s)
	log.Debugf("udp: listening on %s", conn.LocalAddr())
	return s, nil
}

func listen(o options, addr *net.UDPAddr) (*net.UDPConn, error) {
	if !o.reusePort {
		return net.ListenUDP(o.network, addr)
	}
	lc := net.ListenConfig{Control: reusePortControl}
	pc, err := lc.ListenPacket(context.Background(), o.network, addr.String())
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// Incoming returns a fresh stream of datagrams received on this socket.
// Streams created from the same socket race for arriving datagrams; at most
// one stream receives any given datagram.
func (s *Socket) Incoming() *Incoming {
	return newIncoming(s)
}

// SendTo queues data for transmission to address and returns the pending
// operation. When address resolves to several candidates only the first is
// used, consistent with net.UDPConn single-destination send semantics; zero
// candidates fail synchronously with ErrNoAddresses. The data slice is not
// copied and must not be modified until the operation resolves.
func (s *Socket) SendTo(data []byte, address string) (*Send, error) {
	peer, err := firstAddr(s.opts.network, address)
	if err != nil {
		return nil, err
	}
	op := newSend(peer, data)
	s.out.enqueue(op)
	return op, nil
}

// Send queues one datagram for transmission to its peer address. Construction
// always succeeds; transmission itself may still fail asynchronously, which
// the returned operation reports.
func (s *Socket) Send(d Datagram) *Send {
	op := newSend(d.Peer, d.Data)
	s.out.enqueue(op)
	return op
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Stats returns a snapshot of the socket's transfer counters.
func (s *Socket) Stats() Stats {
	return Stats{
		Received:      s.received.Load(),
		Sent:          s.sent.Load(),
		BytesReceived: s.bytesReceived.Load(),
		BytesSent:     s.bytesSent.Load(),
	}
}

// Close releases the socket. Blocked receives fail immediately, queued send
// operations that were not yet written resolve with net.ErrClosed, and any
// later operation on the socket fails the same way. Close is idempotent.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		s.out.stop()
		log.Debugf("udp: closed %s", s.LocalAddr())
	})
	return s.closeErr
}
