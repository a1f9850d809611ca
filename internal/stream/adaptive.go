package stream

import (
	"time"
)

// Adaptive bitrate constants. The controller is classic AIMD: one
// observation window whose average delivery latency is above highLatencyMs
// cuts the bitrate multiplicatively (fast reaction to congestion), and
// sustained low latency probes upward with a small additive step.
const (
	// highLatencyMs triggers a downward adjustment when the windowed
	// average exceeds it.
	highLatencyMs = 200.0

	// lowLatencyMs must be sustained before an upward probe.
	lowLatencyMs = 80.0

	// degradeFactor is the multiplicative decrease applied on congestion.
	degradeFactor = 0.70

	// upgradeStepDivisor: the additive increase is ceiling/20 (5% of the
	// configured maximum) per probe.
	upgradeStepDivisor = 20

	// adjustCooldown spaces adjustments so one congested window cannot
	// trigger a degrade spiral.
	adjustCooldown = 2 * time.Second

	// observeWindow is how often the latency window is sampled.
	observeWindow = time.Second

	// stableRequired windows of low latency before an upgrade fires.
	stableRequired = 3
)

// minBitrateKbps is the floor below which degrading further only produces
// unreadable screen content.
const minBitrateKbps = 200

// adaptiveBitrate watches the pipeline's delivery latency and steers the
// encoder's live bitrate between minBitrateKbps and the preset-derived
// ceiling.
type adaptiveBitrate struct {
	encoder Encoder

	maxKbps     int
	currentKbps int

	lastObserve time.Time
	lastAdjust  time.Time
	stableCount int
}

func newAdaptiveBitrate(encoder Encoder, initialKbps int) *adaptiveBitrate {
	if initialKbps < minBitrateKbps {
		initialKbps = minBitrateKbps
	}
	return &adaptiveBitrate{
		encoder:     encoder,
		maxKbps:     initialKbps,
		currentKbps: initialKbps,
	}
}

// observe is called by the broadcast stage after each published frame. At
// most once per observeWindow it reads (and resets) the windowed transmit
// latency and decides whether to adjust. Returns the new bitrate and
// whether it changed.
func (a *adaptiveBitrate) observe(stats *Stats) (int, bool) {
	now := time.Now()
	if now.Sub(a.lastObserve) < observeWindow {
		return a.currentKbps, false
	}
	a.lastObserve = now

	avgMs, ok := stats.avgTransmitMs()
	if !ok {
		return a.currentKbps, false
	}

	if now.Sub(a.lastAdjust) < adjustCooldown {
		return a.currentKbps, false
	}

	switch {
	case avgMs > highLatencyMs:
		a.stableCount = 0
		next := int(float64(a.currentKbps) * degradeFactor)
		if next < minBitrateKbps {
			next = minBitrateKbps
		}
		if next == a.currentKbps {
			return a.currentKbps, false
		}
		a.currentKbps = next
		a.lastAdjust = now
		a.encoder.SetBitrateKbps(next)
		log.Info("adaptive bitrate degrade", "kbps", next, "avgLatencyMs", avgMs)
		return next, true

	case avgMs < lowLatencyMs && a.currentKbps < a.maxKbps:
		a.stableCount++
		if a.stableCount < stableRequired {
			return a.currentKbps, false
		}
		a.stableCount = 0
		step := a.maxKbps / upgradeStepDivisor
		if step < 50 {
			step = 50
		}
		next := a.currentKbps + step
		if next > a.maxKbps {
			next = a.maxKbps
		}
		a.currentKbps = next
		a.lastAdjust = now
		a.encoder.SetBitrateKbps(next)
		log.Info("adaptive bitrate upgrade", "kbps", next, "avgLatencyMs", avgMs)
		return next, true

	default:
		if a.stableCount > 0 {
			a.stableCount--
		}
		return a.currentKbps, false
	}
}
