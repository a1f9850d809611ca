//go:build darwin

package launcher

import (
	"fmt"
)

// launchStrategies on the bundle platform: open by bundle path, then by
// bundle identifier, then by display name.
func launchStrategies() []launchStrategy {
	return []launchStrategy{
		{name: "open-bundle-path", run: func(e Entry) error {
			if e.Path == "" {
				return fmt.Errorf("entry has no bundle path")
			}
			return spawnDetached("open", e.Path)
		}},
		{name: "open-bundle-id", run: func(e Entry) error {
			if e.ID == "" {
				return fmt.Errorf("entry has no bundle id")
			}
			return spawnDetached("open", "-b", e.ID)
		}},
		{name: "open-app-name", run: func(e Entry) error {
			if e.DisplayName == "" {
				return fmt.Errorf("entry has no display name")
			}
			return spawnDetached("open", "-a", e.DisplayName)
		}},
	}
}
