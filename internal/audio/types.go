// Package audio implements C4: platform audio capture feeding the
// lock-free ring buffer shared with native callbacks, and the Opus encoder
// that turns 20ms PCM frames into compressed packets.
package audio

import "github.com/kestrelremote/bridge/internal/logging"

var log = logging.L("audio")

// Frame is one chunk of raw interleaved PCM samples pulled off the ring
// buffer.
type Frame struct {
	Samples     []float32
	TimestampMs int64
	SampleRate  int
	Channels    int
}

// EncodedFrame is one Opus packet. Sequence is independent from the video
// pipeline's sequence counter.
type EncodedFrame struct {
	Data        []byte
	TimestampMs int64
	Sequence    uint64
	SampleRate  int
	Channels    int
}

// FrameDurationMs is the fixed Opus frame size the encoder accepts.
const FrameDurationMs = 20

// SamplesPerFrame returns how many interleaved samples a 20ms frame holds
// at the given rate/channel count.
func SamplesPerFrame(sampleRate, channels int) int {
	return sampleRate * FrameDurationMs / 1000 * channels
}
