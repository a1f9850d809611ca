//go:build !linux && !windows

package a11y

import (
	"context"
	"errors"
)

func dumpTree(ctx context.Context) (string, error) {
	return "", errors.New("accessibility capture is not supported on this platform")
}
