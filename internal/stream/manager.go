package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelremote/bridge/internal/avsync"
	"github.com/kestrelremote/bridge/internal/capture"
	"github.com/kestrelremote/bridge/internal/video"
)

// FrameSource is the slice of the platform capturer the pipeline needs.
// capture.Capturer satisfies it.
type FrameSource interface {
	Start(cfg capture.Config) error
	Stop() error
	GetRawFrame(ctx context.Context) (video.RawFrame, error)
	IsRunning() bool
}

// Encoder is the slice of the video encoder the pipeline needs.
// *video.VideoEncoder satisfies it.
type Encoder interface {
	Encode(frame video.RawFrame) (video.EncodedFrame, error)
	RequestKeyframe()
	SetBitrateKbps(kbps int)
}

// Config describes one streaming session.
type Config struct {
	Capture capture.Config

	FPS          int
	MaxQueueSize int
	Preset       video.Preset

	// AdaptiveBitrate enables the broadcast-stage latency feedback loop.
	AdaptiveBitrate bool

	Width, Height int
}

// DefaultConfig mirrors the bridge's coded configuration defaults.
func DefaultConfig() Config {
	return Config{
		FPS:             30,
		MaxQueueSize:    8,
		Preset:          video.PresetMedium(),
		AdaptiveBitrate: true,
		Width:           1920,
		Height:          1080,
	}
}

// Manager owns the three pipeline stages and the broadcast fan-out:
//
//	capture ──Q1──▶ encode ──Q2──▶ broadcast ──▶ subscribers
//
// Start and Stop are idempotent; Stop is cooperative, setting streaming
// false and waiting for all three stages to observe it, drain, and exit.
type Manager struct {
	cfg     Config
	source  FrameSource
	encoder Encoder

	fanout *Fanout[video.EncodedFrame]
	stats  *Stats

	streaming atomic.Bool
	startedAt time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	adaptive *adaptiveBitrate
	sync     *avsync.Manager
}

// SetSync attaches the shared A/V clock. When set, published frames carry
// stream-relative presentation timestamps from the shared base and drift
// is auto-corrected at keyframe boundaries.
func (m *Manager) SetSync(s *avsync.Manager) { m.sync = s }

// New builds a Manager around the given source and encoder. The fan-out
// outlives individual subscribers: it is created by Start and closed only
// when the pipeline stops.
func New(cfg Config, source FrameSource, encoder Encoder) *Manager {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultConfig().MaxQueueSize
	}
	m := &Manager{
		cfg:     cfg,
		source:  source,
		encoder: encoder,
		stats:   &Stats{},
	}
	if cfg.AdaptiveBitrate {
		m.adaptive = newAdaptiveBitrate(encoder, cfg.Preset.BitrateKbps(cfg.Width, cfg.Height))
	}
	return m
}

// IsStreaming reports whether the pipeline is running.
func (m *Manager) IsStreaming() bool { return m.streaming.Load() }

// Stats returns the live counters.
func (m *Manager) Stats() Snapshot { return m.stats.Snapshot() }

// Subscribe attaches a new fan-out reader. Returns nil if the pipeline is
// not running.
func (m *Manager) Subscribe() *Subscription[video.EncodedFrame] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fanout == nil {
		return nil
	}
	return m.fanout.Subscribe()
}

// RequestKeyframe forwards to the encoder, used when a new subscriber
// attaches mid-stream and needs an IDR to start decoding.
func (m *Manager) RequestKeyframe() {
	m.encoder.RequestKeyframe()
}

// Start spawns the three stages. Idempotent while already streaming.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streaming.Load() {
		return nil
	}

	if err := m.source.Start(m.cfg.Capture); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.fanout = NewFanout[video.EncodedFrame]()
	m.stats.markStart()
	m.stats.setBitrateKbps(m.cfg.Preset.BitrateKbps(m.cfg.Width, m.cfg.Height))
	m.streaming.Store(true)
	m.startedAt = time.Now()

	q1 := make(chan video.RawFrame, m.cfg.MaxQueueSize)
	q2 := make(chan video.EncodedFrame, m.cfg.MaxQueueSize)

	m.wg.Add(3)
	go m.captureStage(ctx, q1)
	go m.encodeStage(ctx, q1, q2)
	go m.broadcastStage(ctx, q2)

	log.Info("stream pipeline started", "fps", m.cfg.FPS, "queueSize", m.cfg.MaxQueueSize, "adaptive", m.cfg.AdaptiveBitrate)
	return nil
}

// Stop sets streaming=false and joins all three stages. Idempotent.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.streaming.Load() {
		m.mu.Unlock()
		return nil
	}
	m.streaming.Store(false)
	cancel := m.cancel
	m.cancel = nil
	fanout := m.fanout
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	fanout.Close()
	m.mu.Lock()
	if m.fanout == fanout {
		m.fanout = nil
	}
	m.mu.Unlock()

	err := m.source.Stop()
	log.Info("stream pipeline stopped", "stats", m.stats.Snapshot())
	return err
}

// captureStage wakes every 1/fps, requests one frame, and hands it to Q1
// without ever blocking the wake interval on a slow encoder: a full Q1
// drops the frame with reason QueueFull.
func (m *Manager) captureStage(ctx context.Context, q1 chan<- video.RawFrame) {
	defer m.wg.Done()
	defer close(q1)

	interval := time.Second / time.Duration(m.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.streaming.Load() {
				return
			}
			frame, err := m.source.GetRawFrame(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Debug("capture failed", "error", err)
				continue
			}
			m.stats.recordCaptured(len(frame.PixelBytes))
			select {
			case q1 <- frame:
			default:
				m.stats.recordDropped(DropQueueFull)
			}
		}
	}
}

// encodeStage drains Q1, encodes, stamps latency samples, and publishes to
// Q2. Encode errors drop the frame; the sequence gap they leave is the
// documented drop accounting.
func (m *Manager) encodeStage(ctx context.Context, q1 <-chan video.RawFrame, q2 chan<- video.EncodedFrame) {
	defer m.wg.Done()
	defer close(q2)

	for raw := range q1 {
		encodeStart := time.Now()
		encoded, err := m.encoder.Encode(raw)
		encodeEnd := time.Now()
		if err != nil {
			m.stats.recordDropped(DropEncodeError)
			log.Debug("encode failed", "sequence", raw.Sequence, "error", err)
			continue
		}

		captureTime := time.UnixMilli(raw.TimestampMs)
		m.stats.recordEncoded(len(encoded.Data), encodeEnd.Sub(encodeStart), encodeEnd.Sub(captureTime))

		select {
		case q2 <- encoded:
		case <-ctx.Done():
			return
		}
	}
}

// broadcastStage publishes each encoded frame to the fan-out and, when
// adaptive bitrate is on, feeds the observed transmission latency into the
// adjustment loop.
func (m *Manager) broadcastStage(ctx context.Context, q2 <-chan video.EncodedFrame) {
	defer m.wg.Done()

	for frame := range q2 {
		if m.sync != nil {
			frame.PTS = m.sync.VideoTimestamp()
			frame.DTS = frame.PTS
			if frame.IsKeyframe {
				m.sync.AutoCorrect()
			}
		}
		m.fanout.Publish(frame)
		// Transmission latency is capture-to-delivery: the age of the frame
		// at the moment it leaves the pipeline. This is the signal the
		// adaptive loop watches for sustained congestion.
		m.stats.recordTransmitted(time.Since(time.UnixMilli(frame.TimestampMs)))

		if m.adaptive != nil {
			if kbps, changed := m.adaptive.observe(m.stats); changed {
				m.stats.setBitrateKbps(kbps)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}
