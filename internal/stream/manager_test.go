package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrelremote/bridge/internal/capture"
	"github.com/kestrelremote/bridge/internal/video"
)

// fakeSource produces tiny BGRA frames with monotonic sequences.
type fakeSource struct {
	running  atomic.Bool
	sequence atomic.Uint64
}

func (s *fakeSource) Start(capture.Config) error { s.running.Store(true); return nil }
func (s *fakeSource) Stop() error                { s.running.Store(false); return nil }
func (s *fakeSource) IsRunning() bool            { return s.running.Load() }

func (s *fakeSource) GetRawFrame(context.Context) (video.RawFrame, error) {
	return video.RawFrame{
		PixelBytes:  make([]byte, 2*2*4),
		Width:       2,
		Height:      2,
		Format:      video.PixelFormatBGRA,
		TimestampMs: time.Now().UnixMilli(),
		Sequence:    s.sequence.Add(1),
	}, nil
}

// fakeEncoder passes frames through, marking the first (and any requested)
// as a keyframe, with an optional artificial delay to simulate a slow
// encoder.
type fakeEncoder struct {
	delay    time.Duration
	emitted  atomic.Uint64
	forceKey atomic.Bool
	bitrates chan int
}

func newFakeEncoder(delay time.Duration) *fakeEncoder {
	return &fakeEncoder{delay: delay, bitrates: make(chan int, 16)}
}

func (e *fakeEncoder) Encode(f video.RawFrame) (video.EncodedFrame, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	n := e.emitted.Add(1)
	key := n == 1 || e.forceKey.Swap(false)
	return video.EncodedFrame{
		Data:        []byte{0, 0, 0, 1, 0x65},
		Format:      video.WireFormatH264,
		TimestampMs: f.TimestampMs,
		Sequence:    f.Sequence,
		IsKeyframe:  key,
		PTS:         f.TimestampMs,
		DTS:         f.TimestampMs,
		Width:       f.Width,
		Height:      f.Height,
	}, nil
}

func (e *fakeEncoder) RequestKeyframe() { e.forceKey.Store(true) }
func (e *fakeEncoder) SetBitrateKbps(kbps int) {
	select {
	case e.bitrates <- kbps:
	default:
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FPS = 60
	cfg.MaxQueueSize = 4
	cfg.AdaptiveBitrate = false
	cfg.Width, cfg.Height = 2, 2
	return cfg
}

func TestStartStopIdempotent(t *testing.T) {
	m := New(testConfig(), &fakeSource{}, newFakeEncoder(0))
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !m.IsStreaming() {
		t.Fatal("should be streaming after Start")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if m.IsStreaming() {
		t.Fatal("should not be streaming after Stop")
	}
}

func TestFirstFrameIsKeyframeAndSequencesMonotonic(t *testing.T) {
	m := New(testConfig(), &fakeSource{}, newFakeEncoder(0))
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	sub := m.Subscribe()
	if sub == nil {
		t.Fatal("Subscribe returned nil while streaming")
	}
	defer sub.Close()

	var frames []video.EncodedFrame
	deadline := time.After(5 * time.Second)
	for len(frames) < 5 {
		select {
		case f, ok := <-sub.C():
			if !ok {
				t.Fatal("stream ended early")
			}
			frames = append(frames, f)
		case <-deadline:
			t.Fatalf("timed out with %d frames", len(frames))
		}
	}

	if !frames[0].IsKeyframe {
		t.Fatal("first observed frame must be a keyframe")
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Sequence <= frames[i-1].Sequence {
			t.Fatalf("sequence not strictly increasing: %d after %d", frames[i].Sequence, frames[i-1].Sequence)
		}
	}
}

func TestSubscriberReceivesStreamEndOnStop(t *testing.T) {
	m := New(testConfig(), &fakeSource{}, newFakeEncoder(0))
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sub := m.Subscribe()

	// Let at least one frame through so the pipeline is demonstrably live.
	select {
	case <-sub.C():
	case <-time.After(5 * time.Second):
		t.Fatal("no frame before stop")
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return // stream-end observed
			}
		case <-deadline:
			t.Fatal("subscriber never observed stream end")
		}
	}
}

func TestBackpressureDropsWhenEncoderSlow(t *testing.T) {
	cfg := testConfig()
	cfg.FPS = 60
	cfg.MaxQueueSize = 2
	// 100ms per encode ≈ 10fps against a 60fps capture cadence.
	m := New(cfg, &fakeSource{}, newFakeEncoder(100*time.Millisecond))
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sub := m.Subscribe()
	received := 0
	var prev uint64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range sub.C() {
			if f.Sequence <= prev {
				t.Errorf("sequence not strictly increasing: %d after %d", f.Sequence, prev)
				return
			}
			prev = f.Sequence
			received++
		}
	}()

	time.Sleep(time.Second)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-done

	stats := m.Stats()
	if stats.Dropped == 0 {
		t.Fatalf("expected dropped frames under backpressure, stats=%+v", stats)
	}
	if stats.Captured <= stats.Encoded {
		t.Fatalf("captured (%d) should exceed encoded (%d) when the encoder is slow", stats.Captured, stats.Encoded)
	}
	if uint64(received) > stats.Encoded {
		t.Fatalf("subscriber received %d frames, more than encoded %d", received, stats.Encoded)
	}
}

func TestStatsAverages(t *testing.T) {
	m := New(testConfig(), &fakeSource{}, newFakeEncoder(time.Millisecond))
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sub := m.Subscribe()
	for i := 0; i < 3; i++ {
		select {
		case <-sub.C():
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for frames")
		}
	}
	m.Stop()

	stats := m.Stats()
	if stats.Encoded == 0 || stats.AvgEncodeMs <= 0 {
		t.Fatalf("expected positive encode stats, got %+v", stats)
	}
	if stats.BytesEncoded == 0 || stats.BytesCaptured == 0 {
		t.Fatalf("byte counters should be wired, got %+v", stats)
	}
}
