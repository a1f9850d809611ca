//go:build linux

package inputlock

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// XInputDevice discovers and detaches/reattaches input devices via the
// xinput command-line tool, mirroring the device-discovery and
// float/reattach dance used for X11 input masters.
type XInputDevice struct{}

func (XInputDevice) Discover(ctx context.Context) (keyboardID, pointerID, masterKeyboardID, masterPointerID string, err error) {
	out, err := exec.CommandContext(ctx, "xinput", "list").Output()
	if err != nil {
		return "", "", "", "", fmt.Errorf("xinput list: %w", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		lower := strings.ToLower(line)

		if strings.Contains(lower, "master keyboard") {
			if id, ok := extractDeviceID(line); ok {
				masterKeyboardID = id
			}
			continue
		}
		if strings.Contains(lower, "master pointer") {
			if id, ok := extractDeviceID(line); ok {
				masterPointerID = id
			}
			continue
		}
		if strings.Contains(lower, "keyboard") && keyboardID == "" {
			if id, ok := extractDeviceID(line); ok {
				keyboardID = id
			}
			continue
		}
		if strings.Contains(lower, "pointer") && pointerID == "" {
			if id, ok := extractDeviceID(line); ok {
				pointerID = id
			}
		}
	}

	if keyboardID == "" || pointerID == "" {
		return "", "", "", "", fmt.Errorf("could not find both a keyboard and pointer slave device")
	}
	return keyboardID, pointerID, masterKeyboardID, masterPointerID, nil
}

func (XInputDevice) Detach(ctx context.Context, deviceID string) error {
	return exec.CommandContext(ctx, "xinput", "float", deviceID).Run()
}

func (XInputDevice) Reattach(ctx context.Context, deviceID, masterID string) error {
	return exec.CommandContext(ctx, "xinput", "reattach", deviceID, masterID).Run()
}

// extractDeviceID pulls the numeric id out of an `xinput list` line, which
// looks like: "↳ Some Device  id=12  [slave  pointer  (2)]".
func extractDeviceID(line string) (string, bool) {
	for _, token := range strings.Fields(line) {
		if strings.HasPrefix(token, "id=") {
			return strings.TrimPrefix(token, "id="), true
		}
	}
	return "", false
}

// NewDevice returns the platform device backend.
func NewDevice() Device { return XInputDevice{} }
