package udp

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// JoinGroup subscribes the socket to the multicast group on the given
// interface (nil selects the system default). Group traffic then shows up on
// the socket's incoming streams like any other datagram.
func (s *Socket) JoinGroup(ifi *net.Interface, group net.IP) error {
	switch {
	case group == nil:
		return errors.New("udp: no multicast group address")
	case group.To4() != nil:
		return ipv4.NewPacketConn(s.conn).JoinGroup(ifi, &net.UDPAddr{IP: group})
	default:
		return ipv6.NewPacketConn(s.conn).JoinGroup(ifi, &net.UDPAddr{IP: group})
	}
}

// LeaveGroup drops a membership added with JoinGroup.
func (s *Socket) LeaveGroup(ifi *net.Interface, group net.IP) error {
	switch {
	case group == nil:
		return errors.New("udp: no multicast group address")
	case group.To4() != nil:
		return ipv4.NewPacketConn(s.conn).LeaveGroup(ifi, &net.UDPAddr{IP: group})
	default:
		return ipv6.NewPacketConn(s.conn).LeaveGroup(ifi, &net.UDPAddr{IP: group})
	}
}
