//go:build !linux && !darwin

package launcher

import (
	"context"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

func closePlatform(ctx context.Context, binary string) (CloseResult, error) {
	return CloseResult{}, bridgeerr.New(bridgeerr.KindFatal, "application close is not supported on this platform")
}
