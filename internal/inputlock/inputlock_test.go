package inputlock

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeDevice struct {
	mu         sync.Mutex
	detached   map[string]bool
	failDetach bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{detached: map[string]bool{}}
}

func (f *fakeDevice) Discover(ctx context.Context) (string, string, string, string, error) {
	return "kb1", "ptr1", "masterkb", "masterptr", nil
}

func (f *fakeDevice) Detach(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDetach {
		return context.DeadlineExceeded
	}
	f.detached[id] = true
	return nil
}

func (f *fakeDevice) Reattach(ctx context.Context, id, master string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.detached, id)
	return nil
}

func newTestController(t *testing.T, timeout time.Duration) (*Controller, *fakeDevice, []string) {
	t.Helper()
	dev := newFakeDevice()
	var events []string
	var mu sync.Mutex
	c := New(dev, timeout, func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c, dev, events
}

func TestLockIdempotence(t *testing.T) {
	c, _, _ := newTestController(t, time.Hour)
	ctx := context.Background()
	if err := c.Lock(ctx); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := c.Lock(ctx); err != nil {
		t.Fatalf("second lock: %v", err)
	}
	if !c.IsLocked() {
		t.Fatal("expected locked")
	}
}

func TestUnlockIdempotence(t *testing.T) {
	c, _, _ := newTestController(t, time.Hour)
	ctx := context.Background()
	if err := c.Unlock(ctx); err != nil {
		t.Fatalf("unlock on fresh controller: %v", err)
	}
	if c.IsLocked() {
		t.Fatal("expected unlocked")
	}
}

func TestLockUnlockCycle(t *testing.T) {
	c, dev, _ := newTestController(t, time.Hour)
	ctx := context.Background()
	if err := c.Lock(ctx); err != nil {
		t.Fatalf("lock: %v", err)
	}
	dev.mu.Lock()
	detachedCount := len(dev.detached)
	dev.mu.Unlock()
	if detachedCount != 2 {
		t.Fatalf("expected 2 detached devices, got %d", detachedCount)
	}
	if err := c.Unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if c.IsLocked() {
		t.Fatal("expected unlocked after Unlock")
	}
}

func TestWatchdogForcesUnlock(t *testing.T) {
	c, _, _ := newTestController(t, 150*time.Millisecond)
	ctx := context.Background()
	if err := c.Lock(ctx); err != nil {
		t.Fatalf("lock: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !c.IsLocked() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watchdog did not force an unlock within the deadline")
}

func TestEmergencyUnlockFromLocked(t *testing.T) {
	c, _, _ := newTestController(t, time.Hour)
	ctx := context.Background()
	if err := c.Lock(ctx); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := c.EmergencyUnlock(ctx); err != nil {
		t.Fatalf("emergency unlock: %v", err)
	}
	if c.IsLocked() {
		t.Fatal("expected unlocked after emergency unlock")
	}
}

func TestEmergencyUnlockFromUnlocked(t *testing.T) {
	c, _, _ := newTestController(t, time.Hour)
	if err := c.EmergencyUnlock(context.Background()); err != nil {
		t.Fatalf("emergency unlock from unlocked should be a cheap no-op: %v", err)
	}
}
