//go:build !linux

package sysquery

import (
	"context"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

// WindowInfo is one entry of the window manager's client list.
type WindowInfo struct {
	ID          string `json:"id"`
	PID         int32  `json:"pid"`
	ProcessName string `json:"process_name"`
	Title       string `json:"title"`
}

// BrowserTab is one open tab inferred from browser window titles.
type BrowserTab struct {
	Browser string `json:"browser"`
	Title   string `json:"title"`
	Active  bool   `json:"active"`
}

func GetWindowList(ctx context.Context) ([]WindowInfo, error) {
	return nil, bridgeerr.New(bridgeerr.KindNoBackend, "window enumeration is not supported on this platform")
}

func GetBrowserTabs(ctx context.Context) ([]BrowserTab, error) {
	return nil, bridgeerr.New(bridgeerr.KindNoBackend, "browser tab enumeration is not supported on this platform")
}

func GetClipboard(ctx context.Context) (string, error) {
	return "", bridgeerr.New(bridgeerr.KindNoBackend, "clipboard access is not supported on this platform")
}
