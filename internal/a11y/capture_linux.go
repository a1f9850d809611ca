//go:build linux

package a11y

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// dumpTree tries the AT-SPI registry via gdbus first, then the raw busctl
// tree, matching the "native framework -> external tool" fallback order
// used for platform capture elsewhere in the bridge.
func dumpTree(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for _, attempt := range []func(context.Context) (string, error){
		dumpViaGdbus,
		dumpViaBusctl,
	} {
		out, err := attempt(ctx)
		if err == nil && len(out) > 0 {
			return out, nil
		}
		log.Debug("accessibility dump attempt failed", "error", err)
	}
	return "", exec.ErrNotFound
}

func dumpViaGdbus(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "gdbus", "introspect", "--session",
		"--dest", "org.a11y.atspi.Registry", "--object-path", "/org/a11y/atspi/accessible/root", "--recurse")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func dumpViaBusctl(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "busctl", "--user", "tree", "org.a11y.atspi.Registry")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
