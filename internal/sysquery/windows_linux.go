//go:build linux

package sysquery

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

// WindowInfo is one entry of the window manager's client list.
type WindowInfo struct {
	ID          string `json:"id"`
	PID         int32  `json:"pid"`
	ProcessName string `json:"process_name"`
	Title       string `json:"title"`
}

// GetWindowList enumerates top-level windows via the window manager,
// resolving each window's owning process name.
func GetWindowList(ctx context.Context) ([]WindowInfo, error) {
	out, err := exec.CommandContext(ctx, "wmctrl", "-lp").Output()
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindNoBackend, "window enumeration unavailable", err)
	}

	var windows []WindowInfo
	for _, line := range strings.Split(string(out), "\n") {
		// wmctrl -lp: <id> <desktop> <pid> <host> <title...>
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		w := WindowInfo{ID: fields[0]}
		if pid, err := strconv.ParseInt(fields[2], 10, 32); err == nil {
			w.PID = int32(pid)
			if p, err := process.NewProcessWithContext(ctx, w.PID); err == nil {
				if name, err := p.NameWithContext(ctx); err == nil {
					w.ProcessName = name
				}
			}
		}
		if len(fields) >= 5 {
			w.Title = strings.Join(fields[4:], " ")
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// compact drops empty strings that SplitN leaves behind when columns are
// separated by runs of spaces.
func compact(fields []string) []string {
	kept := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// BrowserTab is one open tab inferred from browser window titles. Without
// a debugging-protocol attachment the window title is the only portable
// signal, so each browser window contributes its active tab.
type BrowserTab struct {
	Browser string `json:"browser"`
	Title   string `json:"title"`
	Active  bool   `json:"active"`
}

var browserProcesses = []string{"firefox", "chrome", "chromium", "brave", "opera", "vivaldi", "epiphany"}

// GetBrowserTabs reports the active tab of every open browser window.
func GetBrowserTabs(ctx context.Context) ([]BrowserTab, error) {
	windows, err := GetWindowList(ctx)
	if err != nil {
		return nil, err
	}
	var tabs []BrowserTab
	for _, w := range windows {
		browser := matchBrowser(w.ProcessName)
		if browser == "" {
			continue
		}
		title := stripBrowserSuffix(w.Title)
		if title == "" {
			continue
		}
		tabs = append(tabs, BrowserTab{Browser: browser, Title: title, Active: true})
	}
	return tabs, nil
}

func matchBrowser(processName string) string {
	p := strings.ToLower(processName)
	for _, b := range browserProcesses {
		if strings.Contains(p, b) {
			return b
		}
	}
	return ""
}

// stripBrowserSuffix removes the " — Mozilla Firefox" style suffix
// browsers append to the page title.
func stripBrowserSuffix(title string) string {
	for _, sep := range []string{" — ", " - "} {
		if i := strings.LastIndex(title, sep); i > 0 {
			return title[:i]
		}
	}
	return title
}

// GetClipboard reads the desktop clipboard, trying xclip then xsel.
func GetClipboard(ctx context.Context) (string, error) {
	if out, err := exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-o").Output(); err == nil {
		return string(out), nil
	}
	out, err := exec.CommandContext(ctx, "xsel", "--clipboard", "--output").Output()
	if err != nil {
		return "", bridgeerr.Wrap(bridgeerr.KindNoBackend, "no clipboard tool available", err)
	}
	return string(out), nil
}
