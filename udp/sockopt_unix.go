//go:build linux || darwin || freebsd

package udp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl marks the socket with SO_REUSEPORT before it is bound.
func reusePortControl(network, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}
