//go:build linux

package launcher

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// window is one entry of the window manager's client list.
type window struct {
	id  string
	pid int32
}

// closePlatform enumerates windows with their owning PIDs, closes every
// window whose process name matches the binary, and falls back to a polite
// SIGTERM of matching processes when no window matched.
func closePlatform(ctx context.Context, binary string) (CloseResult, error) {
	windows, err := listWindows(ctx)
	if err != nil {
		log.Debug("window enumeration failed, falling back to signal", "error", err)
	}

	var result CloseResult
	for _, w := range windows {
		name, err := processName(w.pid)
		if err != nil || !nameMatches(name, binary) {
			continue
		}
		if err := exec.CommandContext(ctx, "wmctrl", "-ic", w.id).Run(); err != nil {
			log.Debug("wm close request failed", "window", w.id, "error", err)
			continue
		}
		result.WindowsClosed++
	}
	if result.WindowsClosed > 0 {
		log.Info("closed application windows", "binary", binary, "count", result.WindowsClosed)
		return result, nil
	}

	signalled, err := signalByName(binary)
	if err != nil {
		return result, err
	}
	if !signalled {
		return result, errNothingToClose(binary)
	}
	result.Signalled = true
	log.Info("sent polite termination signal", "binary", binary)
	return result, nil
}

// listWindows parses `wmctrl -lp`: window id, desktop, owning pid, host,
// title.
func listWindows(ctx context.Context) ([]window, error) {
	out, err := exec.CommandContext(ctx, "wmctrl", "-lp").Output()
	if err != nil {
		return nil, err
	}
	var windows []window
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil || pid <= 0 {
			continue
		}
		windows = append(windows, window{id: fields[0], pid: int32(pid)})
	}
	return windows, nil
}

func processName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

// signalByName sends SIGTERM to every process whose name matches. Returns
// whether any process was signalled.
func signalByName(binary string) (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, err
	}
	signalled := false
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !nameMatches(name, binary) {
			continue
		}
		if err := unix.Kill(int(p.Pid), unix.SIGTERM); err != nil {
			log.Debug("signal failed", "pid", p.Pid, "error", err)
			continue
		}
		signalled = true
	}
	return signalled, nil
}
