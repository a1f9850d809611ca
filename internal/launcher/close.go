package launcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

// CloseResult reports what the close operation actually did.
type CloseResult struct {
	WindowsClosed int
	Signalled     bool
}

// Close resolves query against the index and closes the application: first
// every window owned by a matching process gets a WM close request, and if
// no window matched, the process is sent a polite termination signal.
func (s *Store) Close(ctx context.Context, query string) (CloseResult, error) {
	if err := bridgeerr.ValidateAppName(query); err != nil {
		return CloseResult{}, err
	}

	binary := query
	if entry, ok := s.Current().Find(query); ok {
		if b := ExecBinaryName(entry.Exec); b != "" {
			binary = b
		} else if entry.DisplayName != "" {
			binary = entry.DisplayName
		}
	}

	return closePlatform(ctx, binary)
}

// nameMatches applies the window-to-process matching rule: exact or
// substring containment in either direction, case-insensitive.
func nameMatches(processName, binary string) bool {
	p := strings.ToLower(strings.TrimSpace(processName))
	b := strings.ToLower(strings.TrimSpace(binary))
	if p == "" || b == "" {
		return false
	}
	return p == b || strings.Contains(p, b) || strings.Contains(b, p)
}

func errNothingToClose(binary string) error {
	return bridgeerr.New(bridgeerr.KindInvalidInput, fmt.Sprintf("no running windows or processes match %q", binary))
}
