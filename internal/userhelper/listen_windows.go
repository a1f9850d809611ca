//go:build windows

package userhelper

import (
	"net"

	"github.com/Microsoft/go-winio"
)

const pipePath = `\\.\pipe\kestrel-bridge`

func listenPlatform() (net.Listener, error) {
	// Restrict the pipe to the interactive user and SYSTEM; the emergency
	// unlock must not be reachable from other accounts on the machine.
	cfg := &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;SY)(A;;GA;;;IU)",
	}
	return winio.ListenPipe(pipePath, cfg)
}
