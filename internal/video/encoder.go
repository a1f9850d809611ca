package video

import (
	"sync"
	"time"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("video")

// Preset is the quality tier requested for a stream. Custom carries an
// explicit bitrate in kbps instead of deriving one from resolution.
type Preset struct {
	Name       string // "low", "medium", "high", "custom"
	CustomKbps int
}

func PresetLow() Preset            { return Preset{Name: "low"} }
func PresetMedium() Preset         { return Preset{Name: "medium"} }
func PresetHigh() Preset           { return Preset{Name: "high"} }
func PresetCustom(kbps int) Preset { return Preset{Name: "custom", CustomKbps: kbps} }

// BitrateKbps derives the target bitrate for this preset at the given
// resolution. Presets scale with pixel count so 4K "low" still looks
// better than 720p "low"; Custom always returns its fixed value, satisfying
// the monotonicity property bitrate(Low) < bitrate(Medium) < bitrate(High).
func (p Preset) BitrateKbps(width, height int) int {
	if p.Name == "custom" {
		return p.CustomKbps
	}
	pixels := float64(width * height)
	if pixels <= 0 {
		pixels = 1920 * 1080
	}
	// bits-per-pixel-per-frame budget per tier, scaled to kbps at 30fps.
	var bpp float64
	switch p.Name {
	case "low":
		bpp = 0.04
	case "high":
		bpp = 0.12
	default: // medium
		bpp = 0.07
	}
	kbps := int(pixels * bpp * 30 / 1000)
	if kbps < 200 {
		kbps = 200
	}
	return kbps
}

// EncoderConfig configures a VideoEncoder at construction time.
type EncoderConfig struct {
	Preset           Preset
	Width, Height    int
	FPS              int
	KeyframeInterval int    // GOP, in frames
	Profile          string // "baseline" unless overridden
	RealTime         bool
	PreferHardware   bool
	AnnexB           bool // NAL framing: Annex-B if true, length-prefixed otherwise
}

// DefaultEncoderConfig returns sane defaults: baseline profile, real-time
// mode, a 2-second GOP at 30fps, Annex-B framing.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Preset:           PresetMedium(),
		Width:            1920,
		Height:           1080,
		FPS:              30,
		KeyframeInterval: 60,
		Profile:          "baseline",
		RealTime:         true,
		AnnexB:           true,
	}
}

// backend is the interface a hardware or software H.264 implementation
// must satisfy. Encode blocks until the backend's asynchronous output
// callback fires or the bounded timeout elapses.
type backend interface {
	Encode(frame RawFrame, forceKeyframe bool) (EncodedFrame, error)
	RequestKeyframe()
	SetBitrateKbps(kbps int)
	IsHardwareAccelerated() bool
	Close() error
}

// outputTimeout bounds how long Encode waits for a backend's async output
// callback; a timeout is reported as Transient.
const outputTimeout = 100 * time.Millisecond

// VideoEncoder converts RawFrames into EncodedFrames via a selected
// backend: hardware-accelerated when available and requested, software
// (openh264) otherwise.
type VideoEncoder struct {
	mu            sync.Mutex
	cfg           EncoderConfig
	backend       backend
	emittedFirst  bool
	forceKeyframe bool
}

// New selects a backend per cfg.PreferHardware and constructs a
// VideoEncoder. The first frame this encoder emits is always a keyframe
// regardless of GOP position.
func New(cfg EncoderConfig) (*VideoEncoder, error) {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultEncoderConfig().FPS
	}
	if cfg.KeyframeInterval <= 0 {
		cfg.KeyframeInterval = DefaultEncoderConfig().KeyframeInterval
	}
	if cfg.Profile == "" {
		cfg.Profile = "baseline"
	}

	b, err := newBackend(cfg)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindNoBackend, "no video encoder backend available", err)
	}
	return &VideoEncoder{cfg: cfg, backend: b}, nil
}

// Encode drives the backend and waits for its output up to outputTimeout.
// The first successful output after construction is forced to be a
// keyframe.
func (e *VideoEncoder) Encode(frame RawFrame) (EncodedFrame, error) {
	if err := frame.Validate(); err != nil {
		return EncodedFrame{}, bridgeerr.Wrap(bridgeerr.KindInvalidInput, "raw frame failed validation", err)
	}

	e.mu.Lock()
	force := e.forceKeyframe || !e.emittedFirst
	e.forceKeyframe = false
	e.mu.Unlock()

	type result struct {
		frame EncodedFrame
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := e.backend.Encode(frame, force)
		ch <- result{f, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return EncodedFrame{}, r.err
		}
		e.mu.Lock()
		e.emittedFirst = true
		e.mu.Unlock()
		if force && !r.frame.IsKeyframe {
			// Backend didn't honor the force-keyframe request on this frame;
			// report it truthfully rather than lying about the invariant.
			log.Warn("encoder did not produce requested keyframe", "sequence", frame.Sequence)
		}
		return r.frame, nil
	case <-time.After(outputTimeout):
		return EncodedFrame{}, bridgeerr.New(bridgeerr.KindTransient, "encoder output timed out")
	}
}

// RequestKeyframe sets a flag causing the next Encode call to force an IDR
// regardless of GOP position.
func (e *VideoEncoder) RequestKeyframe() {
	e.mu.Lock()
	e.forceKeyframe = true
	e.mu.Unlock()
	e.backend.RequestKeyframe()
}

// SetBitrateKbps adjusts the live encoder bitrate, used by the Stream
// Manager's adaptive-bitrate loop.
func (e *VideoEncoder) SetBitrateKbps(kbps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend.SetBitrateKbps(kbps)
}

// IsHardwareAccelerated reports which backend is active.
func (e *VideoEncoder) IsHardwareAccelerated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend.IsHardwareAccelerated()
}

// Config returns the encoder's current configuration.
func (e *VideoEncoder) Config() EncoderConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Close releases backend resources.
func (e *VideoEncoder) Close() error {
	e.mu.Lock()
	b := e.backend
	e.backend = nil
	e.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close()
}

func newBackend(cfg EncoderConfig) (backend, error) {
	if cfg.PreferHardware {
		if b, err := newHardwareBackend(cfg); err == nil {
			return b, nil
		} else {
			log.Debug("hardware video encoder unavailable, falling back to software", "error", err)
		}
	}
	return newSoftwareBackend(cfg)
}
