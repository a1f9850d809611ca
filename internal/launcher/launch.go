package launcher

import (
	"fmt"
	"os/exec"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

// launchStrategy attempts one way of starting an application. Failure of a
// strategy falls through silently to the next.
type launchStrategy struct {
	name string
	run  func(e Entry) error
}

// Launch resolves query against the index and starts the matched
// application via the first strategy that succeeds. All strategies failing
// is Fatal.
func (s *Store) Launch(query string) (Entry, error) {
	if err := bridgeerr.ValidateAppName(query); err != nil {
		return Entry{}, err
	}
	entry, ok := s.Current().Find(query)
	if !ok {
		return Entry{}, bridgeerr.New(bridgeerr.KindInvalidInput, fmt.Sprintf("no application matches %q", query))
	}
	if err := launchEntry(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func launchEntry(e Entry) error {
	for _, strat := range launchStrategies() {
		if err := strat.run(e); err != nil {
			log.Debug("launch strategy failed", "strategy", strat.name, "app", e.DisplayName, "error", err)
			continue
		}
		log.Info("application launched", "app", e.DisplayName, "strategy", strat.name)
		return nil
	}
	return bridgeerr.New(bridgeerr.KindFatal, fmt.Sprintf("all launch strategies failed for %s", e.DisplayName))
}

// spawnDetached starts a command without waiting for it to exit. The
// process is released immediately so the launched application outlives the
// bridge and is never reaped by it.
func spawnDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
