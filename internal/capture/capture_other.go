//go:build !linux && !darwin

package capture

import (
	"context"

	"github.com/kestrelremote/bridge/internal/video"
)

// otherBackend is the documented-contract stub for platforms whose capture
// API (Windows Desktop Duplication) is an external collaborator this
// repository specifies but does not reimplement.
type otherBackend struct{}

func newPlatformBackend() platformBackend {
	return &otherBackend{}
}

func (otherBackend) start(cfg Config) error { return nil }
func (otherBackend) stop() error            { return nil }

func (otherBackend) bounds() (int, int, error) {
	return 0, 0, errBackendUnavailable("screen capture is not implemented on this platform", nil)
}

func (otherBackend) captureOnce(ctx context.Context, cfg Config) ([]byte, int, int, video.PixelFormat, error) {
	return nil, 0, 0, 0, errBackendUnavailable("screen capture is not implemented on this platform", nil)
}
