package udp

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// aLongTimeAgo is a deadline safely in the past, used to interrupt reads.
var aLongTimeAgo = time.Unix(1, 0)

// Incoming is an unbounded stream of datagrams received on one socket. It
// owns a single fixed-capacity receive buffer that is reused across
// iterations; datagrams larger than the capacity are silently truncated by
// the kernel and the excess bytes discarded. Widen the capacity at bind time
// with WithReceiveCapacity when peers send bigger payloads.
//
// The stream never ends on its own. A hard I/O error is terminal: every
// subsequent Next returns the same error. The socket itself stays valid; a
// fresh traversal starts with another call to Socket.Incoming.
//
// A stream is a single traversal and not safe for concurrent Next calls;
// create one stream per consumer instead.
type Incoming struct {
	sock *Socket
	buf  []byte
	err  error
}

func newIncoming(s *Socket) *Incoming {
	return &Incoming{
		sock: s,
		buf:  make([]byte, s.opts.receiveCapacity),
	}
}

// Capacity returns the fixed size of the stream's receive buffer.
func (in *Incoming) Capacity() int {
	return len(in.buf)
}

// Next blocks until a datagram arrives and returns it paired with its source
// address. The payload is a freshly allocated copy; the internal buffer is
// reused on the following iteration. Cancelling ctx stops the wait without
// terminating the stream.
func (in *Incoming) Next(ctx context.Context) (Datagram, error) {
	if in.err != nil {
		return Datagram{}, in.err
	}
	if err := ctx.Err(); err != nil {
		return Datagram{}, err
	}

	stop := in.watch(ctx)
	defer stop()

	for {
		n, peer, err := in.sock.conn.ReadFromUDP(in.buf)
		if err != nil {
			if isTimeout(err) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Datagram{}, ctxErr
				}
				// Another stream's cancellation moved the shared deadline;
				// restore it and go back to waiting.
				in.sock.conn.SetReadDeadline(time.Time{})
				continue
			}
			in.err = err
			return Datagram{}, err
		}

		data := make([]byte, n)
		copy(data, in.buf[:n])

		in.sock.received.Inc()
		in.sock.bytesReceived.Add(int64(n))

		return Datagram{Peer: peer, Data: data}, nil
	}
}

// watch interrupts a blocked read when ctx is cancelled by moving the read
// deadline into the past. Readers whose context is still live treat the
// resulting timeout as spurious and retry.
func (in *Incoming) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	stopCh := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			in.sock.conn.SetReadDeadline(aLongTimeAgo)
		case <-stopCh:
		}
	}()
	return func() { close(stopCh) }
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
