//go:build darwin

package launcher

import (
	"context"
	"fmt"
	"os/exec"
)

// closePlatform uses the OS "quit application by name" primitive.
func closePlatform(ctx context.Context, binary string) (CloseResult, error) {
	script := fmt.Sprintf("quit app %q", binary)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return CloseResult{}, errNothingToClose(binary)
	}
	return CloseResult{Signalled: true}, nil
}
