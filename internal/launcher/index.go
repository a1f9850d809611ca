// Package launcher indexes installed applications and launches/closes them
// on behalf of a remote controller, using fuzzy matching to resolve a
// free-text query to a concrete entry.
package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/ini.v1"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("launcher")

// fuzzyMatchThreshold is the minimum inverted score a candidate must beat
// to be returned by Find. RankMatch is a Levenshtein distance (smaller is
// better), so scores are inverted as 100 minus the distance and a candidate
// must land within 69 edits of the query.
const fuzzyMatchThreshold = 30

// Entry describes one discoverable application, generalizing both the
// desktop-entry platform (id/exec/keywords) and the bundle platform
// (bundle id/bundle path) onto one shape.
type Entry struct {
	ID          string
	DisplayName string
	GenericName string
	Exec        string
	Keywords    []string
	Path        string
}

// Index is an immutable, atomically swappable snapshot of installed
// applications. Rescans build a fresh Index and callers swap the pointer;
// readers holding the old Index are never blocked by a rescan.
type Index struct {
	entries     []Entry
	lastUpdated time.Time
}

// Store holds the current Index pointer, guarded by a read-write mutex.
type Store struct {
	mu      sync.RWMutex
	current *Index
}

// NewStore builds a Store. A fresh-enough cached index answers lookups
// immediately while the real scan runs in the background; with no usable
// cache the first scan happens synchronously.
func NewStore() *Store {
	s := &Store{}
	if cached, ok := loadCache(); ok {
		s.mu.Lock()
		s.current = cached
		s.mu.Unlock()
		log.Info("application index loaded from cache", "count", len(cached.entries))
		go s.Rescan()
		return s
	}
	s.Rescan()
	return s
}

// Rescan walks the desktop-entry search path, builds a fresh Index, and
// atomically replaces the current one.
func (s *Store) Rescan() {
	idx := &Index{entries: scanAll(), lastUpdated: time.Now()}
	s.mu.Lock()
	s.current = idx
	s.mu.Unlock()
	saveCache(idx)
	log.Info("application index rebuilt", "count", len(idx.entries))
}

// Current returns the Index in effect right now.
func (s *Store) Current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Entries returns every indexed application.
func (idx *Index) Entries() []Entry { return idx.entries }

// Find resolves a free-text query to the best-matching entry. Exact,
// case-insensitive equality on DisplayName short-circuits fuzzy matching;
// otherwise the maximum fuzzy score across name/id/generic-name/keywords is
// taken per entry and the best-scoring entry is returned, provided it clears
// fuzzyMatchThreshold.
func (idx *Index) Find(query string) (Entry, bool) {
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	if lowerQuery == "" {
		return Entry{}, false
	}

	for _, e := range idx.entries {
		if strings.EqualFold(e.DisplayName, query) || strings.EqualFold(e.ID, query) {
			return e, true
		}
	}

	var best Entry
	bestScore := -1
	found := false
	for _, e := range idx.entries {
		score := bestFieldScore(lowerQuery, e)
		if score > bestScore {
			bestScore = score
			best = e
			found = true
		}
	}

	if !found || bestScore <= fuzzyMatchThreshold {
		return Entry{}, false
	}
	return best, true
}

func bestFieldScore(lowerQuery string, e Entry) int {
	candidates := append([]string{e.DisplayName, e.ID, e.GenericName}, e.Keywords...)
	best := -1
	for _, c := range candidates {
		if c == "" {
			continue
		}
		score := fuzzy.RankMatchNormalizedFold(lowerQuery, c)
		if score < 0 {
			continue
		}
		// RankMatch returns edit distance (lower is better); invert so a
		// higher number always means a more confident match.
		normalized := 100 - score
		if normalized > best {
			best = normalized
		}
	}
	return best
}

// scanAll walks every platform search directory and merges the resulting
// entries, deduplicating by source path. On the bundle platform the
// .desktop directories simply do not exist and only bundle entries
// contribute.
func scanAll() []Entry {
	var entries []Entry
	seen := map[string]bool{}
	for _, dir := range searchDirs() {
		for _, e := range scanDirectory(dir) {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			entries = append(entries, e)
		}
	}
	for _, e := range bundleEntries() {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		entries = append(entries, e)
	}
	return entries
}

func searchDirs() []string {
	home := os.Getenv("HOME")
	dirs := []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
	}
	if home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".local/share/applications"),
			filepath.Join(home, ".local/share/flatpak/exports/share/applications"),
		)
	}
	dirs = append(dirs, "/var/lib/snapd/desktop/applications")
	return dirs
}

func scanDirectory(dir string) []Entry {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".desktop") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		e, err := parseDesktopFile(path)
		if err != nil {
			log.Debug("skipping desktop entry", "path", path, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func parseDesktopFile(path string) (Entry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Entry{}, err
	}
	section, err := cfg.GetSection("Desktop Entry")
	if err != nil {
		return Entry{}, err
	}

	if section.Key("Type").String() != "Application" {
		return Entry{}, errSkip("not an Application entry")
	}
	if section.Key("NoDisplay").String() == "true" {
		return Entry{}, errSkip("NoDisplay=true")
	}
	exec := section.Key("Exec").String()
	if strings.TrimSpace(exec) == "" {
		return Entry{}, errSkip("no Exec")
	}

	var keywords []string
	for _, k := range strings.Split(section.Key("Keywords").String(), ";") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	return Entry{
		ID:          strings.TrimSuffix(filepath.Base(path), ".desktop"),
		DisplayName: section.Key("Name").String(),
		GenericName: section.Key("GenericName").String(),
		Exec:        exec,
		Keywords:    keywords,
		Path:        path,
	}, nil
}

type errSkip string

func (e errSkip) Error() string { return string(e) }
