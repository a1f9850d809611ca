package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kestrelremote/bridge/internal/audio"
	"github.com/kestrelremote/bridge/internal/avsync"
)

// AudioSource is the slice of the platform audio capturer the audio
// pipeline needs. audio.Capturer satisfies it indirectly via NewAudio.
type AudioSource interface {
	ReadFrame(ctx context.Context) (audio.Frame, error)
}

// AudioEncoder is satisfied by *audio.Encoder.
type AudioEncoder interface {
	Encode(frame audio.Frame) (audio.EncodedFrame, error)
}

// AudioManager runs the audio half of the pipeline: drain 20ms PCM frames
// from the ring-buffer reader, Opus-encode them, and fan the packets out.
// Simpler than the video Manager because there is no wake interval — the
// 20ms cadence is imposed by the frame reader itself.
type AudioManager struct {
	source  AudioSource
	encoder AudioEncoder

	fanout *Fanout[audio.EncodedFrame]

	streaming atomic.Bool
	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	sync *avsync.Manager
}

// SetSync attaches the shared A/V clock; published packets then carry
// stream-relative timestamps from the same base as the video pipeline.
func (m *AudioManager) SetSync(s *avsync.Manager) { m.sync = s }

// NewAudio builds an AudioManager around a frame source and encoder.
func NewAudio(source AudioSource, encoder AudioEncoder) *AudioManager {
	return &AudioManager{source: source, encoder: encoder}
}

// IsStreaming reports whether the audio pipeline is running.
func (m *AudioManager) IsStreaming() bool { return m.streaming.Load() }

// Subscribe attaches a reader, or returns nil when not streaming.
func (m *AudioManager) Subscribe() *Subscription[audio.EncodedFrame] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fanout == nil {
		return nil
	}
	return m.fanout.Subscribe()
}

// Start spawns the encode loop. Idempotent while already streaming.
func (m *AudioManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streaming.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.fanout = NewFanout[audio.EncodedFrame]()
	m.streaming.Store(true)

	m.wg.Add(1)
	go m.encodeLoop(ctx)

	log.Info("audio pipeline started")
	return nil
}

// Stop joins the encode loop and closes the fan-out. Idempotent.
func (m *AudioManager) Stop() error {
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

	log.Info("audio pipeline stopped")
	return nil
}

func (m *AudioManager) encodeLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		if !m.streaming.Load() || ctx.Err() != nil {
			return
		}
		frame, err := m.source.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug("audio frame read failed", "error", err)
			continue
		}
		encoded, err := m.encoder.Encode(frame)
		if err != nil {
			log.Debug("audio encode failed", "error", err)
			continue
		}
		if m.sync != nil {
			encoded.TimestampMs = m.sync.AudioTimestamp()
		}
		m.fanout.Publish(encoded)
	}
}
