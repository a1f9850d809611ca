// Package rpc implements C11: the gRPC surface binding every external
// operation of the bridge. Messages are plain structs carried by a JSON
// codec — the wire schema beyond the method set is deliberately not part
// of this module's contract, so there is no generated protobuf layer to
// keep in lockstep with a .proto file.
package rpc

import (
	"github.com/kestrelremote/bridge/internal/sysquery"
)

// RegisterAgentRequest opens the singleton session.
type RegisterAgentRequest struct {
	SessionID string `json:"session_id"`
	HubURL    string `json:"hub_url,omitempty"`
}

type RegisterAgentResponse struct {
	AgentID    string              `json:"agent_id"`
	SystemInfo sysquery.SystemInfo `json:"system_info"`
}

type UnregisterAgentRequest struct {
	AgentID string `json:"agent_id"`
}

type UnregisterAgentResponse struct {
	Success bool `json:"success"`
}

type HeartbeatRequest struct {
	AgentID string `json:"agent_id"`
}

type HeartbeatResponse struct {
	ServerTimestampMs int64  `json:"server_timestamp_ms"`
	Status            string `json:"status"`
}

type SetInputLockRequest struct {
	Locked bool `json:"locked"`
	// TimeoutSeconds overrides the default watchdog timeout for this lock
	// episode; 0 keeps the configured default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

type SetInputLockResponse struct {
	Locked bool `json:"locked"`
}

type StartCaptureRequest struct {
	FPS          int    `json:"fps,omitempty"`
	Preset       string `json:"preset,omitempty"` // low|medium|high|custom
	BitrateKbps  int    `json:"bitrate_kbps,omitempty"`
	MaxQueueSize int    `json:"max_queue_size,omitempty"`
}

type StartCaptureResponse struct {
	Streaming bool `json:"streaming"`
}

type StopCaptureRequest struct{}

type StopCaptureResponse struct {
	Streaming bool        `json:"streaming"`
	Stats     StreamStats `json:"stats"`
}

// StreamStats mirrors the pipeline counters on the wire.
type StreamStats struct {
	Captured           uint64  `json:"captured"`
	Encoded            uint64  `json:"encoded"`
	Transmitted        uint64  `json:"transmitted"`
	Dropped            uint64  `json:"dropped"`
	AvgEncodeMs        float64 `json:"avg_encode_ms"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	CurrentBitrateKbps int     `json:"current_bitrate_kbps"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

type GetFrameRequest struct {
	// Format selects the on-demand frame encoding: "png" (default) or
	// "raw-bgra".
	Format string `json:"format,omitempty"`
}

// VideoFrame is one frame on the wire. Format carries the codes:
// 0 raw-bgra, 1 jpeg, 2 png, 3 h264.
type VideoFrame struct {
	Data        []byte `json:"data"`
	Format      int    `json:"format"`
	TimestampMs int64  `json:"timestamp_ms"`
	Sequence    uint64 `json:"sequence"`
	IsKeyframe  bool   `json:"is_keyframe"`
	PTS         int64  `json:"pts"`
	DTS         int64  `json:"dts"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// DroppedFrames reports how many frames this subscriber missed since
	// the previous delivery because it lagged the broadcast.
	DroppedFrames uint64 `json:"dropped_frames,omitempty"`
}

type StreamFramesRequest struct{}

type StartAudioRequest struct{}

type StartAudioResponse struct {
	Streaming  bool `json:"streaming"`
	SampleRate int  `json:"sample_rate"`
	Channels   int  `json:"channels"`
}

type StopAudioRequest struct{}

type StopAudioResponse struct {
	Streaming bool `json:"streaming"`
}

type StreamAudioRequest struct{}

// AudioFrame is one Opus packet on the wire.
type AudioFrame struct {
	Data          []byte `json:"data"`
	TimestampMs   int64  `json:"timestamp_ms"`
	Sequence      uint64 `json:"sequence"`
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	DroppedFrames uint64 `json:"dropped_frames,omitempty"`
}

type InjectMouseMoveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type InjectMouseClickRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button"` // left|right|middle
}

type InjectKeyPressRequest struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

type InjectResponse struct {
	Success bool `json:"success"`
}

type GetSystemInfoRequest struct{}

type GetWindowListRequest struct{}

type GetWindowListResponse struct {
	Windows []sysquery.WindowInfo `json:"windows"`
}

type GetProcessListRequest struct {
	Limit int `json:"limit,omitempty"`
}

type GetProcessListResponse struct {
	Processes []sysquery.ProcessInfo `json:"processes"`
}

type GetBrowserTabsRequest struct{}

type GetBrowserTabsResponse struct {
	Tabs []sysquery.BrowserTab `json:"tabs"`
}

type ListFilesRequest struct {
	Path string `json:"path,omitempty"`
}

type ListFilesResponse struct {
	Files []sysquery.FileInfo `json:"files"`
}

type GetClipboardRequest struct{}

type GetClipboardResponse struct {
	Text string `json:"text"`
}

type LaunchApplicationRequest struct {
	Name string `json:"name"`
}

type LaunchApplicationResponse struct {
	Success     bool   `json:"success"`
	MatchedName string `json:"matched_name,omitempty"`
}

type CloseApplicationRequest struct {
	Name string `json:"name"`
}

type CloseApplicationResponse struct {
	Success       bool `json:"success"`
	WindowsClosed int  `json:"windows_closed"`
	Signalled     bool `json:"signalled"`
}

// NegotiateWebRTCRequest carries the controller's SDP offer when it asks
// for the low-latency transport instead of gRPC streaming.
type NegotiateWebRTCRequest struct {
	OfferSDP string `json:"offer_sdp"`
}

type NegotiateWebRTCResponse struct {
	AnswerSDP string `json:"answer_sdp"`
}

type GetKeyboardShortcutsRequest struct{}

// WireShortcut is one normalised accessibility shortcut.
type WireShortcut struct {
	Name           string   `json:"name"`
	RawForm        string   `json:"raw_form"`
	NormalizedKeys []string `json:"normalized_keys"`
	Command        string   `json:"command"`
	IsSingleKey    bool     `json:"is_single_key"`
}

type GetKeyboardShortcutsResponse struct {
	Shortcuts []WireShortcut `json:"shortcuts"`
}

type TakeScreenshotRequest struct{}

type TakeScreenshotResponse struct {
	ImageBase64 string `json:"image_base64"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
}
