package audio

import (
	"context"
	"time"

	"github.com/kestrelremote/bridge/internal/ringbuffer"
)

// ringCapacitySamples sizes the SPSC ring buffer to roughly one second of
// stereo audio at 48kHz, comfortably ahead of the 20ms frames the encode
// stage drains.
const ringCapacitySamples = 48000 * 2

// Capturer produces raw PCM into a RingBuffer from a native capture
// callback (the producer) while FrameReader (the consumer) pulls fixed-
// size 20ms frames off the other end. This is the one cross-thread data
// path in the bridge: no locks cross the capture boundary, only the ring
// buffer.
type Capturer interface {
	Start(sampleRate, channels int) error
	Stop() error
	IsRunning() bool
	Ring() *ringbuffer.RingBuffer
}

// New returns the platform audio Capturer.
func New() Capturer {
	return newPlatformCapturer()
}

// FrameReader assembles fixed 20ms Frames by draining a RingBuffer,
// retrying briefly if the ring underruns. An underrun pads with silence,
// but a drained read first waits a short grace period for the producer to
// catch up.
type FrameReader struct {
	ring       *ringbuffer.RingBuffer
	sampleRate int
	channels   int
	scratch    []float32
}

func NewFrameReader(ring *ringbuffer.RingBuffer, sampleRate, channels int) *FrameReader {
	return &FrameReader{
		ring:       ring,
		sampleRate: sampleRate,
		channels:   channels,
		scratch:    make([]float32, SamplesPerFrame(sampleRate, channels)),
	}
}

// ReadFrame blocks (via short polling sleeps, not a channel wait, since the
// ring buffer is a non-blocking SPSC structure) until a full 20ms frame is
// available or ctx is done. An underrun that persists past a few retries
// is padded with silence and returned as an ordinary frame with a nil
// error; the underrun is logged at debug level and is not reported to the
// caller.
func (r *FrameReader) ReadFrame(ctx context.Context) (Frame, error) {
	const maxWaitAttempts = 5
	const pollInterval = 2 * time.Millisecond

	need := len(r.scratch)
	got := 0
	for attempt := 0; attempt < maxWaitAttempts; attempt++ {
		got += r.ring.Read(r.scratch[got:])
		if got >= need {
			break
		}
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if got < need {
		for i := got; i < need; i++ {
			r.scratch[i] = 0
		}
		log.Debug("audio ring buffer underrun, padding with silence", "missing", need-got)
	}

	out := make([]float32, need)
	copy(out, r.scratch)

	return Frame{
		Samples:     out,
		TimestampMs: time.Now().UnixMilli(),
		SampleRate:  r.sampleRate,
		Channels:    r.channels,
	}, nil
}
