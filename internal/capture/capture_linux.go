//go:build linux

package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kestrelremote/bridge/internal/video"
)

// linuxBackend captures the desktop via external screenshot tools, tried in
// priority order and falling back silently on failure, so a native
// framework (gnome-screenshot, which talks to the portal/compositor
// directly) first, then general-purpose external tools (scrot, import).
type linuxBackend struct {
	mu    sync.Mutex
	tmp   string
	ready bool
}

func newPlatformBackend() platformBackend {
	return &linuxBackend{}
}

func (b *linuxBackend) start(cfg Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tmp = fmt.Sprintf("%s/bridge-capture-%d.png", os.TempDir(), os.Getpid())
	b.ready = true
	return nil
}

func (b *linuxBackend) stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = false
	if b.tmp != "" {
		_ = os.Remove(b.tmp)
	}
	return nil
}

func (b *linuxBackend) bounds() (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "xdpyinfo").Output()
	if err != nil {
		return 1920, 1080, nil // no xdpyinfo: fall back to a sane default rather than fail
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "dimensions:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		dims := strings.SplitN(fields[1], "x", 2)
		if len(dims) != 2 {
			continue
		}
		w, errW := strconv.Atoi(dims[0])
		h, errH := strconv.Atoi(dims[1])
		if errW == nil && errH == nil {
			return w, h, nil
		}
	}
	return 1920, 1080, nil
}

// captureStrategy is one external-tool invocation that writes a PNG to
// outPath and reports whether it ran successfully.
type captureStrategy func(ctx context.Context, outPath string, cfg Config) error

func (b *linuxBackend) captureOnce(ctx context.Context, cfg Config) ([]byte, int, int, video.PixelFormat, error) {
	b.mu.Lock()
	tmp := b.tmp
	if tmp == "" {
		tmp = fmt.Sprintf("%s/bridge-capture-%d.png", os.TempDir(), os.Getpid())
	}
	b.mu.Unlock()

	strategies := []captureStrategy{captureViaGnomeScreenshot, captureViaScrot, captureViaImageMagick}

	var lastErr error
	for _, strategy := range strategies {
		callCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := strategy(callCtx, tmp, cfg)
		cancel()
		if err != nil {
			lastErr = err
			log.Debug("capture strategy failed, trying next", "error", err)
			continue
		}

		data, err := os.ReadFile(tmp)
		os.Remove(tmp)
		if err != nil || len(data) == 0 {
			lastErr = fmt.Errorf("reading captured png: %w", err)
			continue
		}

		pixels, w, h, format, err := decodePNGToBGRA(data, cfg)
		if err != nil {
			lastErr = err
			continue
		}
		return pixels, w, h, format, nil
	}

	return nil, 0, 0, 0, errBackendUnavailable("no screen capture tool available (tried gnome-screenshot, scrot, import)", lastErr)
}

func captureViaGnomeScreenshot(ctx context.Context, outPath string, cfg Config) error {
	args := []string{"-f", outPath}
	if cfg.Mode == ModeRegion {
		args = append(args, "-a") // interactive area select isn't scriptable; best effort
	}
	return exec.CommandContext(ctx, "gnome-screenshot", args...).Run()
}

func captureViaScrot(ctx context.Context, outPath string, cfg Config) error {
	args := []string{"--overwrite", outPath}
	if cfg.Mode == ModeRegion && cfg.Width > 0 && cfg.Height > 0 {
		args = []string{"--overwrite", "-a",
			fmt.Sprintf("%d,%d,%d,%d", cfg.X, cfg.Y, cfg.Width, cfg.Height), outPath}
	}
	return exec.CommandContext(ctx, "scrot", args...).Run()
}

func captureViaImageMagick(ctx context.Context, outPath string, cfg Config) error {
	window := "root"
	if cfg.Mode == ModeWindow && cfg.WindowID != "" {
		window = cfg.WindowID
	}
	args := []string{"-silent", "-window", window}
	if cfg.Mode == ModeRegion && cfg.Width > 0 && cfg.Height > 0 {
		args = append(args, "-crop", fmt.Sprintf("%dx%d+%d+%d", cfg.Width, cfg.Height, cfg.X, cfg.Y))
	}
	args = append(args, outPath)
	return exec.CommandContext(ctx, "import", args...).Run()
}
