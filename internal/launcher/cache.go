package launcher

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kestrelremote/bridge/internal/config"
)

// cacheMaxAge bounds how stale a cached index may be before it is ignored.
const cacheMaxAge = 24 * time.Hour

// cachedIndex is the on-disk shape of an Index snapshot. The cache exists
// so a host whose desktop directories are slow (NFS homes, cold flatpak
// exports) still answers the first Find immediately; a live rescan always
// replaces it.
type cachedIndex struct {
	ScannedAt time.Time `yaml:"scanned_at"`
	Entries   []Entry   `yaml:"entries"`
}

func cachePath() string {
	return filepath.Join(config.GetDataDir(), "app-index.yaml")
}

// saveCache persists the index snapshot. Best-effort: a read-only data dir
// just means the next start scans cold.
func saveCache(idx *Index) {
	data, err := yaml.Marshal(cachedIndex{ScannedAt: idx.lastUpdated, Entries: idx.entries})
	if err != nil {
		return
	}
	path := cachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Debug("app index cache write failed", "path", path, "error", err)
	}
}

// loadCache returns the cached index if one exists and is fresh enough.
func loadCache() (*Index, bool) {
	data, err := os.ReadFile(cachePath())
	if err != nil {
		return nil, false
	}
	var cached cachedIndex
	if err := yaml.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if len(cached.Entries) == 0 || time.Since(cached.ScannedAt) > cacheMaxAge {
		return nil, false
	}
	return &Index{entries: cached.Entries, lastUpdated: cached.ScannedAt}, true
}
