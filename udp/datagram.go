package udp

import (
	"fmt"
	"net"
)

// Datagram is a single UDP message: the peer it came from (when received) or
// is headed to (when sent), and its payload. Payload bytes are owned by the
// datagram; received datagrams never alias the stream's internal buffer.
type Datagram struct {
	Peer *net.UDPAddr
	Data []byte
}

func (d Datagram) String() string {
	return fmt.Sprintf("Datagram{%s, %d bytes}", d.Peer, len(d.Data))
}
