package a11y

import (
	"context"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("a11y")

// Snapshot is the result of one accessibility capture: the discovered
// shortcuts plus the raw tree text it was extracted from, kept around for
// callers that want to forward the tree itself.
type Snapshot struct {
	Tree      string
	Shortcuts []Shortcut
}

// Capture dumps the current desktop's accessibility tree and extracts
// keyboard shortcuts from it. Each platform tries its high-level provider
// first and falls back to a raw tree dump. Cheap to re-invoke and
// idempotent; callers must not invoke it per streamed frame.
func Capture(ctx context.Context) (Snapshot, error) {
	tree, err := dumpTree(ctx)
	if err != nil {
		return Snapshot{}, bridgeerr.Wrap(bridgeerr.KindNoBackend, "no accessibility capture backend available", err)
	}

	shortcuts, err := ParseAndExtract(tree)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Tree: tree, Shortcuts: shortcuts}, nil
}
