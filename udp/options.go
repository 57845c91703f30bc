package udp

// defaultReceiveCapacity is the fixed size of a stream's receive buffer when
// no option overrides it. Datagrams larger than the capacity are truncated.
const defaultReceiveCapacity = 1024

type options struct {
	network         string
	receiveCapacity int
	readBuffer      int
	writeBuffer     int
	reusePort       bool
}

func defaultOptions() options {
	return options{
		network:         "udp",
		receiveCapacity: defaultReceiveCapacity,
	}
}

// An Option configures a socket at bind time.
type Option func(*options)

// WithNetwork restricts the socket to one address family: "udp" (default),
// "udp4" or "udp6". Resolution of bind and send specs only yields candidates
// of the chosen family.
func WithNetwork(network string) Option {
	return func(o *options) {
		o.network = network
	}
}

// WithReceiveCapacity sets the fixed capacity, in bytes, of the reusable
// receive buffer owned by each incoming stream (default 1024). Datagrams
// larger than the capacity are silently truncated to it; widen the capacity
// if your peers send bigger payloads. Non-positive values keep the default.
func WithReceiveCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.receiveCapacity = n
		}
	}
}

// WithReadBuffer sets the size of the operating system's receive buffer for
// the socket.
func WithReadBuffer(bytes int) Option {
	return func(o *options) {
		o.readBuffer = bytes
	}
}

// WithWriteBuffer sets the size of the operating system's transmit buffer for
// the socket.
func WithWriteBuffer(bytes int) Option {
	return func(o *options) {
		o.writeBuffer = bytes
	}
}

// WithReusePort marks the socket with SO_REUSEPORT before binding, letting
// several sockets share one local address. Binding fails on platforms without
// SO_REUSEPORT support.
func WithReusePort() Option {
	return func(o *options) {
		o.reusePort = true
	}
}
