package notify

import "testing"

func captureNotifications(t *testing.T) *[]Notification {
	t.Helper()
	var got []Notification
	prev := SetSink(func(n Notification) { got = append(got, n) })
	t.Cleanup(func() { SetSink(prev) })
	return &got
}

func TestLifecycleWrappersCarryLevels(t *testing.T) {
	got := captureNotifications(t)

	InputLocked()
	InputUnlocked()
	LockTimeout()
	EmergencyUnlock()
	ControllerConnected("s1")
	ControllerDisconnected()
	FatalError("boom")

	if len(*got) != 7 {
		t.Fatalf("delivered %d notifications, want 7", len(*got))
	}
	wantLevels := []Level{LevelWarning, LevelInfo, LevelWarning, LevelCritical, LevelInfo, LevelInfo, LevelCritical}
	for i, n := range *got {
		if n.Level != wantLevels[i] {
			t.Fatalf("notification %d level = %v, want %v (%+v)", i, n.Level, wantLevels[i], n)
		}
		if n.Title == "" || n.Body == "" {
			t.Fatalf("notification %d missing title/body: %+v", i, n)
		}
	}
}

func TestEventDispatch(t *testing.T) {
	got := captureNotifications(t)

	Event("lock")
	Event("unlock")
	Event("lock_timeout")
	Event("emergency_unlock")
	Event("unknown-event") // silently ignored

	if len(*got) != 4 {
		t.Fatalf("delivered %d notifications, want 4", len(*got))
	}
}

func TestRenderingTableCoversAllLevels(t *testing.T) {
	for _, level := range []Level{LevelInfo, LevelWarning, LevelCritical} {
		r, ok := renderings[level]
		if !ok {
			t.Fatalf("no rendering for level %v", level)
		}
		if r.urgency == "" || r.icon == "" {
			t.Fatalf("incomplete rendering for level %v: %+v", level, r)
		}
	}
	if renderings[LevelCritical].timeoutMs != 0 {
		t.Fatal("critical notifications must be sticky")
	}
}
