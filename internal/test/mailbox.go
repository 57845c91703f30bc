package test

import (
	"context"

	"github.com/gramnet/udp"
)

// Mailbox drains one incoming stream into a channel so tests can assert on
// delivered datagrams without driving the stream themselves. The stream's
// terminal error, if any, lands on Errs.
type Mailbox struct {
	Recv chan udp.Datagram
	Errs chan error

	cancel context.CancelFunc
}

// NewMailbox starts collecting from in until the stream fails or Stop is
// called.
func NewMailbox(in *udp.Incoming) *Mailbox {
	ctx, cancel := context.WithCancel(context.Background())
	mb := &Mailbox{
		Recv:   make(chan udp.Datagram, 64),
		Errs:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		for {
			d, err := in.Next(ctx)
			if err != nil {
				mb.Errs <- err
				return
			}
			mb.Recv <- d
		}
	}()
	return mb
}

// Stop ends collection. The collector goroutine reports the cancellation on
// Errs and exits.
func (mb *Mailbox) Stop() {
	mb.cancel()
}
