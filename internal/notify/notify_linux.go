//go:build linux

package notify

import (
	"os/exec"
	"strconv"
)

// platformSink shells out to notify-send, the same path the desktop's own
// applications use for transient notifications.
func platformSink(n Notification) {
	r := renderings[n.Level]
	args := []string{"-u", r.urgency, "-i", r.icon}
	if r.timeoutMs > 0 {
		args = append(args, "-t", strconv.Itoa(r.timeoutMs))
	}
	args = append(args, n.Title, n.Body)

	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Debug("notification delivery failed", "title", n.Title, "error", err)
	}
}
