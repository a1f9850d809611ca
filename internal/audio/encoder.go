package audio

import (
	"fmt"
	"sync"

	"layeh.com/gopus"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

// maxOpusPacketBytes bounds one encoded packet. 4000 is the libopus
// recommended maximum for a single frame.
const maxOpusPacketBytes = 4000

// EncoderConfig fixes the PCM shape the encoder accepts. Every Frame fed
// to Encode must match it exactly.
type EncoderConfig struct {
	SampleRate int
	Channels   int
	BitrateBps int
}

// DefaultEncoderConfig is 48kHz stereo at 96kbps, the codec's sweet spot
// for desktop audio.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{SampleRate: 48000, Channels: 2, BitrateBps: 96000}
}

// Encoder turns 20ms PCM frames into Opus packets with an independent
// monotonic sequence counter.
type Encoder struct {
	mu       sync.Mutex
	cfg      EncoderConfig
	enc      *gopus.Encoder
	pcm      []int16
	sequence uint64
}

// NewEncoder constructs an Opus encoder in low-delay audio mode.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 {
		return nil, bridgeerr.New(bridgeerr.KindInvalidInput, "sample rate and channels must be positive")
	}
	enc, err := gopus.NewEncoder(cfg.SampleRate, cfg.Channels, gopus.RestrictedLowDelay)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindNoBackend, "opus encoder init failed", err)
	}
	if cfg.BitrateBps > 0 {
		enc.SetBitrate(cfg.BitrateBps)
	}
	return &Encoder{
		cfg: cfg,
		enc: enc,
		pcm: make([]int16, SamplesPerFrame(cfg.SampleRate, cfg.Channels)),
	}, nil
}

// Config returns the fixed PCM shape this encoder accepts.
func (e *Encoder) Config() EncoderConfig {
	return e.cfg
}

// Encode compresses one 20ms frame. A frame whose sample rate or channel
// count differs from the encoder's configuration is Fatal: the stream's
// timing would silently skew if it were resampled on the fly.
func (e *Encoder) Encode(frame Frame) (EncodedFrame, error) {
	if frame.SampleRate != e.cfg.SampleRate || frame.Channels != e.cfg.Channels {
		return EncodedFrame{}, bridgeerr.New(bridgeerr.KindFatal,
			fmt.Sprintf("audio frame %dHz/%dch does not match encoder %dHz/%dch",
				frame.SampleRate, frame.Channels, e.cfg.SampleRate, e.cfg.Channels))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	want := len(e.pcm)
	if len(frame.Samples) != want {
		return EncodedFrame{}, bridgeerr.New(bridgeerr.KindInvalidInput,
			fmt.Sprintf("audio frame holds %d samples, expected %d (20ms)", len(frame.Samples), want))
	}

	for i, s := range frame.Samples {
		e.pcm[i] = float32ToInt16(s)
	}

	frameSize := want / e.cfg.Channels
	data, err := e.enc.Encode(e.pcm, frameSize, maxOpusPacketBytes)
	if err != nil {
		return EncodedFrame{}, bridgeerr.Wrap(bridgeerr.KindTransient, "opus encode failed", err)
	}

	e.sequence++
	return EncodedFrame{
		Data:        data,
		TimestampMs: frame.TimestampMs,
		Sequence:    e.sequence,
		SampleRate:  frame.SampleRate,
		Channels:    frame.Channels,
	}, nil
}

// SetBitrateBps adjusts the live bitrate.
func (e *Encoder) SetBitrateBps(bps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enc.SetBitrate(bps)
}

func float32ToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
