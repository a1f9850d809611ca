package stream

import (
	"sync/atomic"
	"time"
)

// Stats holds the pipeline's running counters. All fields are updated with
// relaxed atomic increments from whichever stage owns the event; averages
// are derived at read time in Snapshot.
type Stats struct {
	captured    atomic.Uint64
	encoded     atomic.Uint64
	transmitted atomic.Uint64
	dropped     atomic.Uint64

	bytesCaptured atomic.Uint64
	bytesEncoded  atomic.Uint64

	encodeTotalUs   atomic.Uint64
	encodeSamples   atomic.Uint64
	latencyTotalUs  atomic.Uint64
	latencySamples  atomic.Uint64
	transmitTotalUs atomic.Uint64
	transmitSamples atomic.Uint64

	currentBitrateKbps atomic.Int64
	startUnixMs        atomic.Int64
}

// DropReason labels why a frame was discarded.
type DropReason string

const (
	DropQueueFull   DropReason = "queue_full"
	DropEncodeError DropReason = "encode_error"
)

func (s *Stats) markStart() {
	s.startUnixMs.Store(time.Now().UnixMilli())
}

func (s *Stats) recordCaptured(bytes int) {
	s.captured.Add(1)
	s.bytesCaptured.Add(uint64(bytes))
}

func (s *Stats) recordDropped(reason DropReason) {
	s.dropped.Add(1)
	log.Debug("frame dropped", "reason", string(reason))
}

func (s *Stats) recordEncoded(bytes int, encodeTime, captureToDone time.Duration) {
	s.encoded.Add(1)
	s.bytesEncoded.Add(uint64(bytes))
	s.encodeTotalUs.Add(uint64(encodeTime.Microseconds()))
	s.encodeSamples.Add(1)
	s.latencyTotalUs.Add(uint64(captureToDone.Microseconds()))
	s.latencySamples.Add(1)
}

func (s *Stats) recordTransmitted(sendTime time.Duration) {
	s.transmitted.Add(1)
	s.transmitTotalUs.Add(uint64(sendTime.Microseconds()))
	s.transmitSamples.Add(1)
}

func (s *Stats) setBitrateKbps(kbps int) {
	s.currentBitrateKbps.Store(int64(kbps))
}

// Snapshot is a point-in-time copy of the counters with the averages
// computed.
type Snapshot struct {
	Captured    uint64
	Encoded     uint64
	Transmitted uint64
	Dropped     uint64

	BytesCaptured uint64
	BytesEncoded  uint64

	AvgEncodeMs  float64
	AvgLatencyMs float64

	CurrentBitrateKbps int
	UptimeSeconds      float64
}

// Snapshot derives averages as total/count at read time.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Captured:           s.captured.Load(),
		Encoded:            s.encoded.Load(),
		Transmitted:        s.transmitted.Load(),
		Dropped:            s.dropped.Load(),
		BytesCaptured:      s.bytesCaptured.Load(),
		BytesEncoded:       s.bytesEncoded.Load(),
		CurrentBitrateKbps: int(s.currentBitrateKbps.Load()),
	}
	if n := s.encodeSamples.Load(); n > 0 {
		snap.AvgEncodeMs = float64(s.encodeTotalUs.Load()) / float64(n) / 1000
	}
	if n := s.latencySamples.Load(); n > 0 {
		snap.AvgLatencyMs = float64(s.latencyTotalUs.Load()) / float64(n) / 1000
	}
	if start := s.startUnixMs.Load(); start > 0 {
		snap.UptimeSeconds = float64(time.Now().UnixMilli()-start) / 1000
	}
	return snap
}

// avgTransmitMs is used by the adaptive loop; it reads and resets the
// transmit-latency window so each adjustment decision sees fresh samples.
func (s *Stats) avgTransmitMs() (float64, bool) {
	n := s.transmitSamples.Swap(0)
	total := s.transmitTotalUs.Swap(0)
	if n == 0 {
		return 0, false
	}
	return float64(total) / float64(n) / 1000, true
}
