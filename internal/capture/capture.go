// Package capture implements C2, the platform screen-capture component:
// producing RawFrames from a desktop, a named window, or a rectangular
// region, tolerating the absence of any one backend by falling back
// silently to the next in priority order.
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
	"github.com/kestrelremote/bridge/internal/video"
)

var log = logging.L("capture")

// Mode selects what a Capturer captures.
type Mode int

const (
	ModeDesktop Mode = iota
	ModeWindow
	ModeRegion
)

// Config describes one capture session.
type Config struct {
	Mode Mode

	// WindowID identifies the target window when Mode == ModeWindow, in
	// whatever form the platform's window manager uses (decimal or
	// 0x-prefixed hex, matching bridgeerr.ValidateWindowID).
	WindowID string

	// Region bounds, used when Mode == ModeRegion.
	X, Y, Width, Height int

	DisplayIndex int
}

// Capturer is the capability set required of every platform backend.
type Capturer interface {
	Start(cfg Config) error
	Stop() error
	// GetRawFrame produces exactly one fresh frame. It may block briefly
	// while the OS synthesises the image.
	GetRawFrame(ctx context.Context) (video.RawFrame, error)
	IsRunning() bool
	// Bounds returns the full desktop dimensions, independent of Mode.
	Bounds() (width, height int, err error)
}

// New returns the platform Capturer, wrapping it with the sequence-number
// bookkeeping shared across platforms. GetRawFrame works whether or not
// Start has been called.
func New() Capturer {
	return &sequencedCapturer{backend: newPlatformBackend()}
}

// sequencedCapturer layers the per-session monotonic sequence counter (the
// same counter on every platform backend) on top of whatever raw-bytes
// backend the platform provides.
type sequencedCapturer struct {
	mu       sync.Mutex
	backend  platformBackend
	running  bool
	lastCfg  Config
	sequence atomic.Uint64
}

// platformBackend is implemented per-platform; it need not track sequence
// numbers or running state itself.
type platformBackend interface {
	start(cfg Config) error
	stop() error
	captureOnce(ctx context.Context, cfg Config) (pixels []byte, width, height int, format video.PixelFormat, err error)
	bounds() (width, height int, err error)
}

func (c *sequencedCapturer) Start(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if err := c.backend.start(cfg); err != nil {
		return err
	}
	c.running = true
	c.lastCfg = cfg
	c.sequence.Store(0)
	return nil
}

func (c *sequencedCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	err := c.backend.stop()
	c.running = false
	return err
}

func (c *sequencedCapturer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *sequencedCapturer) Bounds() (int, int, error) {
	return c.backend.bounds()
}

// GetRawFrame captures exactly one frame and stamps it with a wall-clock
// timestamp and the next per-session sequence number, starting at 1.
func (c *sequencedCapturer) GetRawFrame(ctx context.Context) (video.RawFrame, error) {
	c.mu.Lock()
	running := c.running
	cfg := c.lastCfg
	c.mu.Unlock()
	_ = running // GetFrame (on-demand) is legal even when not streaming

	pixels, width, height, format, err := c.backend.captureOnce(ctx, cfg)
	for retry := 0; err != nil && retry < maxTransientRetries; retry++ {
		if bridgeerr.KindOf(err) != bridgeerr.KindTransient || ctx.Err() != nil {
			break
		}
		pixels, width, height, format, err = c.backend.captureOnce(ctx, cfg)
	}
	if err != nil {
		return video.RawFrame{}, err
	}
	seq := c.sequence.Add(1)
	return video.RawFrame{
		PixelBytes:  pixels,
		Width:       width,
		Height:      height,
		Format:      format,
		TimestampMs: time.Now().UnixMilli(),
		Sequence:    seq,
	}, nil
}

// errTransient wraps a retryable capture failure with bridgeerr's Transient
// kind: a single backend attempt that failed but might succeed on retry.
func errTransient(msg string, cause error) error {
	return bridgeerr.Wrap(bridgeerr.KindTransient, msg, cause)
}

// errBackendUnavailable wraps a failure to find any usable capture backend.
func errBackendUnavailable(msg string, cause error) error {
	return bridgeerr.Wrap(bridgeerr.KindNoBackend, msg, cause)
}

// maxTransientRetries bounds retry of a Transient capture error.
const maxTransientRetries = 3
