//go:build linux

package launcher

import (
	"fmt"
)

// launchStrategies on the desktop-entry platform, in fallback order:
// system launcher keyed by the full .desktop path, then by application id,
// then a generic open-by-path, and finally spawning the Exec binary
// directly through a shell in the background.
func launchStrategies() []launchStrategy {
	return []launchStrategy{
		{name: "gio-launch-path", run: func(e Entry) error {
			if e.Path == "" {
				return fmt.Errorf("entry has no desktop file path")
			}
			return spawnDetached("gio", "launch", e.Path)
		}},
		{name: "gtk-launch-id", run: func(e Entry) error {
			if e.ID == "" {
				return fmt.Errorf("entry has no id")
			}
			return spawnDetached("gtk-launch", e.ID)
		}},
		{name: "xdg-open-path", run: func(e Entry) error {
			if e.Path == "" {
				return fmt.Errorf("entry has no desktop file path")
			}
			return spawnDetached("xdg-open", e.Path)
		}},
		{name: "exec-shell", run: func(e Entry) error {
			bin := ExecBinaryName(e.Exec)
			if bin == "" {
				return fmt.Errorf("entry has no usable Exec line")
			}
			return spawnDetached("sh", "-c", fmt.Sprintf("%s >/dev/null 2>&1 &", bin))
		}},
	}
}
