//go:build !windows

package userhelper

import (
	"net"
	"os"
	"path/filepath"
)

// socketPath prefers the user's runtime directory so the socket dies with
// the session; falls back to the temp dir.
func socketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "kestrel-bridge.sock")
	}
	return filepath.Join(os.TempDir(), "kestrel-bridge.sock")
}

func listenPlatform() (net.Listener, error) {
	path := socketPath()
	// A previous instance's socket blocks the bind; the bridge is
	// single-instance per session so removing it is safe.
	os.Remove(path)
	lis, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	os.Chmod(path, 0o600)
	return lis, nil
}
