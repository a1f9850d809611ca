//go:build !linux

package audio

import (
	"errors"

	"github.com/kestrelremote/bridge/internal/ringbuffer"
)

// otherCapturer is the documented-contract stub for platforms whose native
// audio API (WASAPI, CoreAudio) is an out-of-scope collaborator. The ring
// buffer still exists so the frame reader pads with silence rather than
// failing the session.
type otherCapturer struct {
	ring *ringbuffer.RingBuffer
}

func newPlatformCapturer() Capturer {
	return &otherCapturer{ring: ringbuffer.New(ringCapacitySamples)}
}

func (c *otherCapturer) Ring() *ringbuffer.RingBuffer { return c.ring }
func (c *otherCapturer) IsRunning() bool              { return false }
func (c *otherCapturer) Stop() error                  { return nil }

func (c *otherCapturer) Start(sampleRate, channels int) error {
	return errors.New("audio capture is not supported on this platform")
}
