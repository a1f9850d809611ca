//go:build linux

package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"sync"

	"github.com/kestrelremote/bridge/internal/ringbuffer"
)

// linuxCapturer shells out to PulseAudio's parec, falling back to ALSA's
// arecord, to stream raw float32LE PCM from the default monitor source.
// The reader goroutine here plays the role of the native capture callback:
// it is the sole producer into the RingBuffer, generalizing the native
// callback boundary to a subprocess boundary since this bridge has no
// direct PulseAudio/ALSA cgo bindings.
type linuxCapturer struct {
	mu      sync.Mutex
	ring    *ringbuffer.RingBuffer
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	running bool
}

func newPlatformCapturer() Capturer {
	return &linuxCapturer{ring: ringbuffer.New(ringCapacitySamples)}
}

func (c *linuxCapturer) Ring() *ringbuffer.RingBuffer { return c.ring }

func (c *linuxCapturer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *linuxCapturer) Start(sampleRate, channels int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd, stdout, err := startCaptureTool(ctx, sampleRate, channels)
	if err != nil {
		cancel()
		return errBackendUnavailable("no audio capture tool available (tried parec, arecord)", err)
	}

	c.cmd = cmd
	c.cancel = cancel
	c.running = true

	go c.pump(stdout, channels)
	return nil
}

func (c *linuxCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// pump reads raw float32LE samples from the capture tool's stdout and
// writes them into the ring buffer, the producer side of the SPSC
// contract. It never blocks on a full ring: Write silently drops samples
// that don't fit, same as the Stream Manager's capture stage dropping
// frames on a full queue.
func (c *linuxCapturer) pump(stdout io.ReadCloser, channels int) {
	defer stdout.Close()
	reader := bufio.NewReaderSize(stdout, 4096)
	raw := make([]byte, 4096)
	samples := make([]float32, len(raw)/4)

	for {
		n, err := reader.Read(raw)
		if n > 0 {
			count := n / 4
			for i := 0; i < count; i++ {
				bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
				samples[i] = math.Float32frombits(bits)
			}
			c.ring.Write(samples[:count])
		}
		if err != nil {
			if err != io.EOF {
				log.Warn("audio capture tool exited", "error", err)
			}
			return
		}
	}
}

func startCaptureTool(ctx context.Context, sampleRate, channels int) (*exec.Cmd, io.ReadCloser, error) {
	var lastErr error
	for _, build := range []func() *exec.Cmd{
		func() *exec.Cmd {
			return exec.CommandContext(ctx, "parec",
				"--format=float32le",
				fmt.Sprintf("--rate=%d", sampleRate),
				fmt.Sprintf("--channels=%d", channels),
				"--raw")
		},
		func() *exec.Cmd {
			return exec.CommandContext(ctx, "arecord",
				"-f", "FLOAT_LE",
				"-r", fmt.Sprintf("%d", sampleRate),
				"-c", fmt.Sprintf("%d", channels),
				"-t", "raw")
		},
	} {
		cmd := build()
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			lastErr = err
			continue
		}
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		return cmd, stdout, nil
	}
	return nil, nil, lastErr
}

func float32frombits(bits uint32) float32 {
	return math.Float32frombits(bits)
}
