package avsync

import "testing"

func TestNewIsSynced(t *testing.T) {
	m := New(50)
	if !m.IsSynced() {
		t.Fatal("fresh manager should be synced")
	}
}

func TestTimestampsCloseTogether(t *testing.T) {
	m := New(50)
	a := m.AudioTimestamp()
	v := m.VideoTimestamp()
	d := a - v
	if d < 0 {
		d = -d
	}
	if d > 10 {
		t.Fatalf("audio/video timestamps diverged by %dms immediately after creation", d)
	}
}

func TestAdjustOffsetSignAndClamp(t *testing.T) {
	m := New(50)
	m.AdjustAudioOffset(50)
	if got := m.AudioTimestamp() - m.VideoTimestamp(); got < 40 || got > 60 {
		t.Fatalf("drift after +50ms audio offset = %d, want ~50", got)
	}

	m.AdjustAudioOffset(-1000)
	if m.AudioTimestamp()-m.VideoTimestamp() < -10 {
		t.Fatal("audio offset should be clamped at zero, not driven deeply negative")
	}
}

func TestSyncDetectionThreshold(t *testing.T) {
	m := New(50)
	m.AdjustAudioOffset(100)
	if m.IsSynced() {
		t.Fatal("expected out of sync after a 100ms audio offset with max drift 50")
	}
}

func TestAutoCorrectReducesDrift(t *testing.T) {
	m := New(50)
	m.AdjustAudioOffset(200)
	before := m.Drift()
	if !m.AutoCorrect() {
		t.Fatal("expected a correction to be applied")
	}
	after := m.Drift()
	if after >= before {
		t.Fatalf("drift did not shrink: before=%d after=%d", before, after)
	}
}

func TestAutoCorrectNoopWhenSynced(t *testing.T) {
	m := New(50)
	if m.AutoCorrect() {
		t.Fatal("should not correct an already-synced stream")
	}
}

func TestReset(t *testing.T) {
	m := New(50)
	m.AdjustAudioOffset(500)
	m.Reset()
	if !m.IsSynced() {
		t.Fatal("expected synced state immediately after reset")
	}
}

func TestStats(t *testing.T) {
	m := New(50)
	s := m.GetStats()
	if s.MaxDriftMs != 50 {
		t.Fatalf("MaxDriftMs = %d, want 50", s.MaxDriftMs)
	}
	if !s.IsSynced {
		t.Fatal("expected IsSynced true in fresh stats")
	}
}
