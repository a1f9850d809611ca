//go:build darwin

package launcher

import (
	"os"
	"path/filepath"
	"strings"

	plist "github.com/DHowett/go-plist"
)

// bundleInfo is the slice of Info.plist the index needs.
type bundleInfo struct {
	BundleIdentifier  string `plist:"CFBundleIdentifier"`
	BundleName        string `plist:"CFBundleName"`
	BundleDisplayName string `plist:"CFBundleDisplayName"`
}

func bundleSearchDirs() []string {
	dirs := []string{
		"/Applications",
		"/Applications/Utilities",
		"/System/Applications",
	}
	if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	return dirs
}

// bundleEntries scans the application directories for .app bundles and
// reads each bundle's property list. Display name resolution falls back
// CFBundleName → CFBundleDisplayName → bundle basename.
func bundleEntries() []Entry {
	var entries []Entry
	for _, dir := range bundleSearchDirs() {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if !strings.HasSuffix(f.Name(), ".app") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			e, err := parseBundle(path)
			if err != nil {
				log.Debug("skipping app bundle", "path", path, "error", err)
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries
}

func parseBundle(bundlePath string) (Entry, error) {
	data, err := os.ReadFile(filepath.Join(bundlePath, "Contents", "Info.plist"))
	if err != nil {
		return Entry{}, err
	}
	var info bundleInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return Entry{}, err
	}

	name := info.BundleName
	if name == "" {
		name = info.BundleDisplayName
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(bundlePath), ".app")
	}

	return Entry{
		ID:          info.BundleIdentifier,
		DisplayName: name,
		Path:        bundlePath,
	}, nil
}
