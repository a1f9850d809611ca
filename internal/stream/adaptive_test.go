package stream

import (
	"testing"
	"time"
)

func TestAdaptiveDegradeOnSustainedHighLatency(t *testing.T) {
	enc := newFakeEncoder(0)
	a := newAdaptiveBitrate(enc, 4000)
	// Force the window and cooldown to be considered elapsed.
	a.lastObserve = time.Now().Add(-2 * observeWindow)
	a.lastAdjust = time.Now().Add(-2 * adjustCooldown)

	stats := &Stats{}
	stats.recordTransmitted(500 * time.Millisecond)

	kbps, changed := a.observe(stats)
	if !changed {
		t.Fatal("expected a degrade adjustment")
	}
	want := int(4000 * degradeFactor)
	if kbps != want {
		t.Fatalf("bitrate = %d, want %d", kbps, want)
	}
	select {
	case got := <-enc.bitrates:
		if got != want {
			t.Fatalf("encoder saw %d, want %d", got, want)
		}
	default:
		t.Fatal("encoder bitrate was not adjusted")
	}
}

func TestAdaptiveUpgradeRequiresSustainedLowLatency(t *testing.T) {
	enc := newFakeEncoder(0)
	a := newAdaptiveBitrate(enc, 4000)
	a.currentKbps = 2000

	for i := 0; i < stableRequired; i++ {
		a.lastObserve = time.Now().Add(-2 * observeWindow)
		a.lastAdjust = time.Now().Add(-2 * adjustCooldown)
		stats := &Stats{}
		stats.recordTransmitted(10 * time.Millisecond)
		kbps, changed := a.observe(stats)
		if i < stableRequired-1 {
			if changed {
				t.Fatalf("upgrade fired after only %d stable windows", i+1)
			}
		} else {
			if !changed {
				t.Fatal("upgrade should fire after sustained low latency")
			}
			want := 2000 + 4000/upgradeStepDivisor
			if kbps != want {
				t.Fatalf("bitrate = %d, want %d", kbps, want)
			}
		}
	}
}

func TestAdaptiveRespectsFloorAndCeiling(t *testing.T) {
	enc := newFakeEncoder(0)
	a := newAdaptiveBitrate(enc, minBitrateKbps)

	a.lastObserve = time.Now().Add(-2 * observeWindow)
	a.lastAdjust = time.Now().Add(-2 * adjustCooldown)
	stats := &Stats{}
	stats.recordTransmitted(500 * time.Millisecond)
	if _, changed := a.observe(stats); changed {
		t.Fatal("must not degrade below the floor")
	}

	b := newAdaptiveBitrate(newFakeEncoder(0), 4000)
	for i := 0; i < stableRequired; i++ {
		b.lastObserve = time.Now().Add(-2 * observeWindow)
		b.lastAdjust = time.Now().Add(-2 * adjustCooldown)
		low := &Stats{}
		low.recordTransmitted(10 * time.Millisecond)
		if _, changed := b.observe(low); changed {
			t.Fatal("must not upgrade above the ceiling")
		}
	}
}

func TestAdaptiveCooldownBlocksBackToBackAdjustments(t *testing.T) {
	enc := newFakeEncoder(0)
	a := newAdaptiveBitrate(enc, 4000)
	a.lastObserve = time.Now().Add(-2 * observeWindow)
	a.lastAdjust = time.Now() // just adjusted

	stats := &Stats{}
	stats.recordTransmitted(500 * time.Millisecond)
	if _, changed := a.observe(stats); changed {
		t.Fatal("cooldown should block the adjustment")
	}
}
