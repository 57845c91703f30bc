package udp

import (
	"context"
	"net"

	"go.uber.org/atomic"
)

// Send is a one-shot asynchronous send operation. It resolves exactly once:
// with nil when the OS accepts the datagram for transmission, or with the
// first hard I/O error from the attempt. It is never retried internally and
// not reusable after resolution.
type Send struct {
	peer *net.UDPAddr
	data []byte

	resolved atomic.Bool
	err      error
	done     chan struct{}
}

func newSend(peer *net.UDPAddr, data []byte) *Send {
	return &Send{
		peer: peer,
		data: data,
		done: make(chan struct{}),
	}
}

// resolve records the outcome. Only the first call wins.
func (s *Send) resolve(err error) {
	if !s.resolved.CompareAndSwap(false, true) {
		return
	}
	s.err = err
	close(s.done)
}

// Peer returns the destination address the operation targets.
func (s *Send) Peer() *net.UDPAddr {
	return s.peer
}

// Done is closed once the operation has resolved.
func (s *Send) Done() <-chan struct{} {
	return s.done
}

// Err reports the operation's outcome. It returns nil while the operation is
// still pending; check Done first to distinguish "pending" from "succeeded".
func (s *Send) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Wait blocks until the operation resolves or ctx ends. A context error only
// abandons the wait; the queued transmission attempt still runs and may
// complete.
func (s *Send) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
