// Package avsync tracks drift between the audio and video streams of a
// session and nudges their independent timestamp offsets back together.
package avsync

import (
	"sync/atomic"
	"time"
)

// Manager generates monotonically increasing millisecond timestamps for the
// audio and video streams of one session, with independently adjustable
// offsets used to correct drift between them.
type Manager struct {
	base        time.Time
	audioOffset atomic.Int64
	videoOffset atomic.Int64
	maxDriftMs  int64
}

// Stats is a snapshot of the current sync state.
type Stats struct {
	AudioTimestampMs int64
	VideoTimestampMs int64
	DriftMs          int64
	IsSynced         bool
	MaxDriftMs       int64
}

// New creates a Manager rebased to now, with zeroed offsets.
func New(maxDriftMs int64) *Manager {
	m := &Manager{base: time.Now(), maxDriftMs: maxDriftMs}
	return m
}

// Reset rebases the clock to now and zeroes both offsets.
func (m *Manager) Reset() {
	m.base = time.Now()
	m.audioOffset.Store(0)
	m.videoOffset.Store(0)
}

func (m *Manager) elapsedMs() int64 {
	e := time.Since(m.base).Milliseconds()
	if e < 0 {
		return 0
	}
	return e
}

// AudioTimestamp returns the current audio stream timestamp in milliseconds.
func (m *Manager) AudioTimestamp() int64 {
	return m.elapsedMs() + m.audioOffset.Load()
}

// VideoTimestamp returns the current video stream timestamp in milliseconds.
func (m *Manager) VideoTimestamp() int64 {
	return m.elapsedMs() + m.videoOffset.Load()
}

// AdjustAudioOffset shifts the audio offset by delta, clamped at zero.
func (m *Manager) AdjustAudioOffset(deltaMs int64) {
	adjustClamped(&m.audioOffset, deltaMs)
}

// AdjustVideoOffset shifts the video offset by delta, clamped at zero.
func (m *Manager) AdjustVideoOffset(deltaMs int64) {
	adjustClamped(&m.videoOffset, deltaMs)
}

func adjustClamped(offset *atomic.Int64, deltaMs int64) {
	for {
		cur := offset.Load()
		next := cur + deltaMs
		if next < 0 {
			next = 0
		}
		if offset.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Drift returns audio_timestamp - video_timestamp; positive means audio is
// ahead of video.
func (m *Manager) Drift() int64 {
	return m.AudioTimestamp() - m.VideoTimestamp()
}

// IsSynced reports whether the absolute drift is within the configured bound.
func (m *Manager) IsSynced() bool {
	d := m.Drift()
	if d < 0 {
		d = -d
	}
	return d <= m.maxDriftMs
}

// AutoCorrect halves whichever stream is leading when drift exceeds the
// configured bound, and reports whether a correction was applied.
func (m *Manager) AutoCorrect() bool {
	d := m.Drift()
	abs := d
	if abs < 0 {
		abs = -abs
	}
	if abs <= m.maxDriftMs {
		return false
	}
	if d > 0 {
		// audio is ahead, slow it down
		m.AdjustAudioOffset(-(d / 2))
	} else {
		// video is ahead, slow it down
		m.AdjustVideoOffset(d / 2)
	}
	return true
}

// GetStats returns a consistent-enough snapshot of the sync state.
func (m *Manager) GetStats() Stats {
	audio := m.AudioTimestamp()
	video := m.VideoTimestamp()
	drift := audio - video
	abs := drift
	if abs < 0 {
		abs = -abs
	}
	return Stats{
		AudioTimestampMs: audio,
		VideoTimestampMs: video,
		DriftMs:          drift,
		IsSynced:         abs <= m.maxDriftMs,
		MaxDriftMs:       m.maxDriftMs,
	}
}
