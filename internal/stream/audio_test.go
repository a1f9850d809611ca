package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrelremote/bridge/internal/audio"
)

type fakeAudioSource struct{}

func (fakeAudioSource) ReadFrame(ctx context.Context) (audio.Frame, error) {
	select {
	case <-ctx.Done():
		return audio.Frame{}, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	return audio.Frame{
		Samples:     make([]float32, audio.SamplesPerFrame(48000, 2)),
		TimestampMs: time.Now().UnixMilli(),
		SampleRate:  48000,
		Channels:    2,
	}, nil
}

type fakeAudioEncoder struct {
	sequence atomic.Uint64
}

func (e *fakeAudioEncoder) Encode(f audio.Frame) (audio.EncodedFrame, error) {
	return audio.EncodedFrame{
		Data:        []byte{0xf8},
		TimestampMs: f.TimestampMs,
		Sequence:    e.sequence.Add(1),
		SampleRate:  f.SampleRate,
		Channels:    f.Channels,
	}, nil
}

func TestAudioManagerStreamsPackets(t *testing.T) {
	m := NewAudio(fakeAudioSource{}, &fakeAudioEncoder{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("second Start must be idempotent: %v", err)
	}

	sub := m.Subscribe()
	if sub == nil {
		t.Fatal("Subscribe returned nil while streaming")
	}

	var prev uint64
	for i := 0; i < 3; i++ {
		select {
		case p, ok := <-sub.C():
			if !ok {
				t.Fatal("stream ended early")
			}
			if p.Sequence <= prev {
				t.Fatalf("audio sequence not monotonic: %d after %d", p.Sequence, prev)
			}
			prev = p.Sequence
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for audio packets")
		}
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.Subscribe() != nil {
		t.Fatal("Subscribe after Stop should return nil")
	}
}
