package udp

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// ErrNoAddresses is returned when an address spec resolves to zero usable
// addresses for the requested network.
var ErrNoAddresses = errors.New("udp: no addresses to send data to")

var errNoBindAddresses = errors.New("udp: could not resolve to any addresses")

// resolveAddrs expands a "host:port" spec into candidate UDP addresses.
// The host may be empty (wildcard), a literal IP, or a DNS name; the port may
// be numeric or a service name. Candidates not matching the address family of
// network ("udp4"/"udp6") are filtered out.
func resolveAddrs(network, address string) ([]*net.UDPAddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, errors.Wrapf(err, "udp: invalid address %q", address)
	}
	port, err := net.LookupPort(network, portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "udp: invalid port %q", portStr)
	}

	if host == "" {
		return []*net.UDPAddr{{Port: port}}, nil
	}

	var ips []net.IPAddr
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IPAddr{{IP: ip}}
	} else {
		ips, err = net.DefaultResolver.LookupIPAddr(context.Background(), host)
		if err != nil {
			return nil, errors.Wrapf(err, "udp: resolve %q", host)
		}
	}

	addrs := make([]*net.UDPAddr, 0, len(ips))
	for _, ip := range ips {
		if !familyMatch(network, ip.IP) {
			continue
		}
		addrs = append(addrs, &net.UDPAddr{IP: ip.IP, Port: port, Zone: ip.Zone})
	}
	return addrs, nil
}

func familyMatch(network string, ip net.IP) bool {
	switch network {
	case "udp4":
		return ip.To4() != nil
	case "udp6":
		return ip.To4() == nil
	default:
		return true
	}
}

// firstAddr resolves an address spec and keeps only the first candidate,
// consistent with the single-destination semantics of net.UDPConn writes.
func firstAddr(network, address string) (*net.UDPAddr, error) {
	addrs, err := resolveAddrs(network, address)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}
	return addrs[0], nil
}
