//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
)

// platformSink posts a user notification through osascript.
func platformSink(n Notification) {
	script := fmt.Sprintf("display notification %q with title %q", n.Body, n.Title)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		log.Debug("notification delivery failed", "title", n.Title, "error", err)
	}
}
