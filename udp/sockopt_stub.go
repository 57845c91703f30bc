//go:build !linux && !darwin && !freebsd

package udp

import (
	"syscall"

	"github.com/pkg/errors"
)

func reusePortControl(network, address string, c syscall.RawConn) error {
	return errors.New("udp: SO_REUSEPORT is not supported on this platform")
}
