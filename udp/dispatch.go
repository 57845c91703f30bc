package udp

import (
	"net"
	"sync"

	"github.com/eapache/queue"

	"github.com/gramnet/utils/log"
)

// dispatcher serializes every write to the shared socket through one
// goroutine fed by an unbounded outbox. Concurrent send operations never
// touch the socket at the same instant, yet enqueueing never blocks the
// caller.
type dispatcher struct {
	sock *Socket

	mu      sync.Mutex
	outbox  *queue.Queue // of *Send
	stopped bool

	wake chan struct{}
	kill chan struct{}
	done chan struct{}
}

func newDispatcher(s *Socket) *dispatcher {
	d := &dispatcher{
		sock:   s,
		outbox: queue.New(),
		wake:   make(chan struct{}, 1),
		kill:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// enqueue hands one operation to the write loop. Operations enqueued after
// stop resolve immediately with net.ErrClosed.
func (d *dispatcher) enqueue(op *Send) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		op.resolve(net.ErrClosed)
		return
	}
	d.outbox.Add(op)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) next() (*Send, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outbox.Length() == 0 {
		return nil, false
	}
	return d.outbox.Remove().(*Send), true
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		op, ok := d.next()
		if !ok {
			select {
			case <-d.wake:
				continue
			case <-d.kill:
				d.drain()
				return
			}
		}
		d.write(op)
	}
}

func (d *dispatcher) write(op *Send) {
	n, err := d.sock.conn.WriteToUDP(op.data, op.peer)
	if err != nil {
		log.Errorf("udp: send to %s failed: %v", op.peer, err)
		op.resolve(err)
		return
	}
	d.sock.sent.Inc()
	d.sock.bytesSent.Add(int64(n))
	op.resolve(nil)
}

// drain resolves whatever was still queued when the dispatcher stopped.
func (d *dispatcher) drain() {
	for {
		op, ok := d.next()
		if !ok {
			return
		}
		op.resolve(net.ErrClosed)
	}
}

// stop ends the write loop and waits for it to drain. Idempotent.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.kill)
	<-d.done
}
