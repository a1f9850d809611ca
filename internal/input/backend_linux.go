//go:build linux

package input

import (
	"fmt"
	"os/exec"
	"strings"
)

func newBackend() backend { return &xdotoolBackend{} }

// xdotoolBackend shells out to xdotool, the same external-tool pattern
// the capture backends use.
type xdotoolBackend struct{}

func (x *xdotoolBackend) mouseMove(mx, my int) error {
	return run("mousemove", fmt.Sprint(mx), fmt.Sprint(my))
}

func (x *xdotoolBackend) mouseClick(_, _ int, button Button) error {
	return run("click", buttonCode(button))
}

func (x *xdotoolBackend) mouseDown(_, _ int, button Button) error {
	return run("mousedown", buttonCode(button))
}

func (x *xdotoolBackend) mouseUp(_, _ int, button Button) error {
	return run("mouseup", buttonCode(button))
}

func (x *xdotoolBackend) scroll(mx, my, deltaX, deltaY int) error {
	if err := x.mouseMove(mx, my); err != nil {
		return err
	}
	// xdotool has no native scroll-delta primitive; repeated button 4/5
	// clicks is the conventional shim (button 4 = up, 5 = down, 6 = left,
	// 7 = right).
	vertical, horizontal := "5", "7"
	if deltaY < 0 {
		vertical = "4"
	}
	if deltaX < 0 {
		horizontal = "6"
	}
	for i := 0; i < abs(deltaY); i++ {
		if err := run("click", vertical); err != nil {
			return err
		}
	}
	for i := 0; i < abs(deltaX); i++ {
		if err := run("click", horizontal); err != nil {
			return err
		}
	}
	return nil
}

func (x *xdotoolBackend) keyCombo(combo string) error {
	return run("key", translateCombo(combo))
}

func (x *xdotoolBackend) keyDown(combo string) error {
	return run("keydown", translateCombo(combo))
}

func (x *xdotoolBackend) keyUp(combo string) error {
	return run("keyup", translateCombo(combo))
}

func typeString(b backend, text string, perCharDelayMs int) error {
	if perCharDelayMs <= 0 {
		perCharDelayMs = 20
	}
	return run("type", "--delay", fmt.Sprint(perCharDelayMs), text)
}

func run(args ...string) error {
	cmd := exec.Command("xdotool", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("xdotool %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func buttonCode(b Button) string {
	switch b {
	case ButtonRight:
		return "3"
	case ButtonMiddle:
		return "2"
	default:
		return "1"
	}
}

// translateCombo maps a "ctrl+shift+n" style combo to xdotool's keysym
// names, joined with '+'.
func translateCombo(combo string) string {
	parts := strings.Split(combo, "+")
	for i, p := range parts {
		parts[i] = translateKey(p)
	}
	return strings.Join(parts, "+")
}

func translateKey(key string) string {
	switch strings.ToLower(key) {
	case "ctrl", "control":
		return "ctrl"
	case "alt":
		return "alt"
	case "shift":
		return "shift"
	case "command", "super", "win", "windows":
		return "super"
	case "enter", "return":
		return "Return"
	case "tab":
		return "Tab"
	case "space":
		return "space"
	case "backspace":
		return "BackSpace"
	case "escape", "esc":
		return "Escape"
	case "delete", "del":
		return "Delete"
	case "home":
		return "Home"
	case "end":
		return "End"
	case "pageup":
		return "Page_Up"
	case "pagedown":
		return "Page_Down"
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "left":
		return "Left"
	case "right":
		return "Right"
	default:
		return key
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
