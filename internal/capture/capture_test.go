package capture

import (
	"context"
	"testing"

	"github.com/kestrelremote/bridge/internal/video"
)

type fakeBackend struct {
	started bool
	calls   int
}

func (f *fakeBackend) start(cfg Config) error    { f.started = true; return nil }
func (f *fakeBackend) stop() error               { f.started = false; return nil }
func (f *fakeBackend) bounds() (int, int, error) { return 1920, 1080, nil }
func (f *fakeBackend) captureOnce(ctx context.Context, cfg Config) ([]byte, int, int, video.PixelFormat, error) {
	f.calls++
	return make([]byte, 4), 1, 1, video.PixelFormatBGRA, nil
}

func TestSequencedCapturerStartsSequenceAtOne(t *testing.T) {
	fb := &fakeBackend{}
	c := &sequencedCapturer{backend: fb}
	if err := c.Start(Config{Mode: ModeDesktop}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f1, err := c.GetRawFrame(context.Background())
	if err != nil {
		t.Fatalf("GetRawFrame: %v", err)
	}
	if f1.Sequence != 1 {
		t.Fatalf("first frame sequence = %d, want 1", f1.Sequence)
	}

	f2, err := c.GetRawFrame(context.Background())
	if err != nil {
		t.Fatalf("GetRawFrame: %v", err)
	}
	if f2.Sequence != 2 {
		t.Fatalf("second frame sequence = %d, want 2", f2.Sequence)
	}
}

func TestSequencedCapturerStartIsIdempotent(t *testing.T) {
	fb := &fakeBackend{}
	c := &sequencedCapturer{backend: fb}
	if err := c.Start(Config{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(Config{}); err != nil {
		t.Fatalf("second Start should be a no-op, got error: %v", err)
	}
	if !c.IsRunning() {
		t.Fatal("expected capturer to be running")
	}
}

func TestSequencedCapturerStopResetsRunning(t *testing.T) {
	fb := &fakeBackend{}
	c := &sequencedCapturer{backend: fb}
	_ = c.Start(Config{})
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.IsRunning() {
		t.Fatal("expected capturer to not be running after Stop")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got error: %v", err)
	}
}
