package rpc

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kestrelremote/bridge/internal/a11y"
	"github.com/kestrelremote/bridge/internal/audio"
	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/input"
	"github.com/kestrelremote/bridge/internal/launcher"
	"github.com/kestrelremote/bridge/internal/logging"
	"github.com/kestrelremote/bridge/internal/notify"
	"github.com/kestrelremote/bridge/internal/stream"
	"github.com/kestrelremote/bridge/internal/sysquery"
	"github.com/kestrelremote/bridge/internal/video"
	"github.com/kestrelremote/bridge/internal/workerpool"
)

var log = logging.L("rpc")

// VideoPipeline is the slice of the stream manager the service drives.
// *stream.Manager satisfies it.
type VideoPipeline interface {
	Start() error
	Stop() error
	IsStreaming() bool
	Subscribe() *stream.Subscription[video.EncodedFrame]
	RequestKeyframe()
	Stats() stream.Snapshot
}

// AudioPipeline is satisfied by *stream.AudioManager.
type AudioPipeline interface {
	Start() error
	Stop() error
	IsStreaming() bool
	Subscribe() *stream.Subscription[audio.EncodedFrame]
}

// LockController is satisfied by *inputlock.Controller.
type LockController interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	EmergencyUnlock(ctx context.Context) error
	IsLocked() bool
	SetTimeout(d time.Duration)
}

// AppService is satisfied by *launcher.Store.
type AppService interface {
	Launch(query string) (launcher.Entry, error)
	Close(ctx context.Context, query string) (launcher.CloseResult, error)
}

// FrameGrabber produces one on-demand frame independent of the pipeline.
// capture.Capturer satisfies it.
type FrameGrabber interface {
	GetRawFrame(ctx context.Context) (video.RawFrame, error)
}

// Options wires the service's collaborators.
type Options struct {
	Video    VideoPipeline
	Audio    AudioPipeline
	AudioCfg audio.EncoderConfig
	Lock     LockController
	Injector input.Injector
	Apps     AppService
	Grabber  FrameGrabber
	// Pool executes blocking work (screenshots, platform tool spawns) off
	// the RPC handler goroutines.
	Pool *workerpool.Pool
	// NegotiateWebRTC exchanges an SDP offer for an answer, attaching the
	// caller to the fan-out over an RTP transport. Nil disables the
	// transport.
	NegotiateWebRTC func(offerSDP string) (answerSDP string, err error)
}

// Service binds every external operation of the bridge.
type Service struct {
	opts    Options
	session session
}

// NewService constructs the RPC service.
func NewService(opts Options) *Service {
	return &Service{opts: opts}
}

// statusFromError maps the bridge error taxonomy onto gRPC status codes.
func statusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}
	var code codes.Code
	switch bridgeerr.KindOf(err) {
	case bridgeerr.KindInvalidInput:
		code = codes.InvalidArgument
	case bridgeerr.KindNotRegistered:
		code = codes.FailedPrecondition
	case bridgeerr.KindNoBackend:
		code = codes.Unavailable
	case bridgeerr.KindTransient:
		code = codes.Unavailable
	case bridgeerr.KindPeerLagged:
		code = codes.ResourceExhausted
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func errNotRegistered() error {
	return statusFromError(bridgeerr.New(bridgeerr.KindNotRegistered, "no controller session; call RegisterAgent first"))
}

// requireSession guards every non-register RPC.
func (s *Service) requireSession() error {
	if !s.session.registered() {
		return errNotRegistered()
	}
	return nil
}

// runBlocking executes f on the blocking pool and waits for it, keeping
// the RPC reactor free while platform tools run.
func (s *Service) runBlocking(ctx context.Context, f func()) error {
	done := make(chan struct{})
	if !s.opts.Pool.Submit(func() { defer close(done); f() }) {
		return status.Error(codes.ResourceExhausted, "blocking worker pool is saturated")
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
}

// --- session lifecycle ---

func (s *Service) RegisterAgent(ctx context.Context, req *RegisterAgentRequest) (*RegisterAgentResponse, error) {
	if req.SessionID == "" {
		return nil, statusFromError(bridgeerr.New(bridgeerr.KindInvalidInput, "session_id must not be empty"))
	}

	// Re-registration replaces the prior session; input is unlocked first
	// so the old controller can never leave the seat locked.
	if s.session.registered() {
		log.Warn("replacing existing controller session", "old", s.session.id())
		if err := s.opts.Lock.Unlock(ctx); err != nil {
			log.Error("unlock during re-registration failed", "error", err)
		}
	}

	agentID := s.session.register(req.SessionID, req.HubURL)
	notify.ControllerConnected(req.SessionID)
	log.Info("controller registered", "agentId", agentID, "sessionId", req.SessionID)

	return &RegisterAgentResponse{
		AgentID:    agentID,
		SystemInfo: sysquery.GetSystemInfo(ctx),
	}, nil
}

func (s *Service) UnregisterAgent(ctx context.Context, req *UnregisterAgentRequest) (*UnregisterAgentResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	// Disconnect unconditionally unlocks (I2), even if stopping the
	// pipelines fails.
	if err := s.opts.Lock.Unlock(ctx); err != nil {
		log.Error("unlock on unregister failed, forcing emergency unlock", "error", err)
		if err := s.opts.Lock.EmergencyUnlock(ctx); err != nil {
			log.Error("emergency unlock on unregister failed", "error", err)
		}
	}
	if err := s.opts.Video.Stop(); err != nil {
		log.Warn("video pipeline stop on unregister failed", "error", err)
	}
	if err := s.opts.Audio.Stop(); err != nil {
		log.Warn("audio pipeline stop on unregister failed", "error", err)
	}

	s.session.clear()
	notify.ControllerDisconnected()
	log.Info("controller unregistered")
	return &UnregisterAgentResponse{Success: true}, nil
}

func (s *Service) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return &HeartbeatResponse{ServerTimestampMs: time.Now().UnixMilli(), Status: "ok"}, nil
}

// --- input lock ---

func (s *Service) SetInputLock(ctx context.Context, req *SetInputLockRequest) (*SetInputLockResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if req.TimeoutSeconds < 0 {
		return nil, statusFromError(bridgeerr.New(bridgeerr.KindInvalidInput, "timeout_seconds must be non-negative"))
	}
	if req.TimeoutSeconds > 0 {
		s.opts.Lock.SetTimeout(time.Duration(req.TimeoutSeconds) * time.Second)
	}

	var err error
	if req.Locked {
		err = s.opts.Lock.Lock(ctx)
	} else {
		err = s.opts.Lock.Unlock(ctx)
	}
	if err != nil {
		return nil, statusFromError(err)
	}
	return &SetInputLockResponse{Locked: s.opts.Lock.IsLocked()}, nil
}

// --- video pipeline ---

func (s *Service) StartCapture(ctx context.Context, req *StartCaptureRequest) (*StartCaptureResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.opts.Video.Start(); err != nil {
		return nil, statusFromError(err)
	}
	return &StartCaptureResponse{Streaming: true}, nil
}

func (s *Service) StopCapture(ctx context.Context, req *StopCaptureRequest) (*StopCaptureResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	stats := s.opts.Video.Stats()
	if err := s.opts.Video.Stop(); err != nil {
		return nil, statusFromError(err)
	}
	return &StopCaptureResponse{Streaming: false, Stats: wireStats(stats)}, nil
}

func wireStats(s stream.Snapshot) StreamStats {
	return StreamStats{
		Captured:           s.Captured,
		Encoded:            s.Encoded,
		Transmitted:        s.Transmitted,
		Dropped:            s.Dropped,
		AvgEncodeMs:        s.AvgEncodeMs,
		AvgLatencyMs:       s.AvgLatencyMs,
		CurrentBitrateKbps: s.CurrentBitrateKbps,
		UptimeSeconds:      s.UptimeSeconds,
	}
}

// GetFrame captures one on-demand frame without touching the pipeline.
// The capture itself runs on the blocking pool: the OS screenshot tools it
// may shell out to are not async-safe.
func (s *Service) GetFrame(ctx context.Context, req *GetFrameRequest) (*VideoFrame, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	var (
		raw    video.RawFrame
		capErr error
	)
	if err := s.runBlocking(ctx, func() {
		raw, capErr = s.opts.Grabber.GetRawFrame(ctx)
	}); err != nil {
		return nil, err
	}
	if capErr != nil {
		return nil, statusFromError(capErr)
	}

	frame := &VideoFrame{
		TimestampMs: raw.TimestampMs,
		Sequence:    raw.Sequence,
		Width:       raw.Width,
		Height:      raw.Height,
	}

	switch req.Format {
	case "", "png":
		var pngData []byte
		var encErr error
		if err := s.runBlocking(ctx, func() {
			pngData, encErr = encodePNG(raw)
		}); err != nil {
			return nil, err
		}
		if encErr != nil {
			return nil, statusFromError(encErr)
		}
		frame.Data = pngData
		frame.Format = int(video.WireFormatPNG)
	case "raw-bgra":
		frame.Data = raw.PixelBytes
		frame.Format = int(video.WireFormatRawBGRA)
	default:
		return nil, statusFromError(bridgeerr.New(bridgeerr.KindInvalidInput, fmt.Sprintf("unsupported frame format %q", req.Format)))
	}
	return frame, nil
}

// --- audio pipeline ---

func (s *Service) StartAudio(ctx context.Context, req *StartAudioRequest) (*StartAudioResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.opts.Audio.Start(); err != nil {
		return nil, statusFromError(err)
	}
	return &StartAudioResponse{
		Streaming:  true,
		SampleRate: s.opts.AudioCfg.SampleRate,
		Channels:   s.opts.AudioCfg.Channels,
	}, nil
}

func (s *Service) StopAudio(ctx context.Context, req *StopAudioRequest) (*StopAudioResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.opts.Audio.Stop(); err != nil {
		return nil, statusFromError(err)
	}
	return &StopAudioResponse{Streaming: false}, nil
}

// --- input injection ---
//
// Injection is gated by validation but NOT by the input lock: the lock
// targets the seated user's devices, while injection is the controller's
// own channel. Locking out the controller too would deadlock the session.

func (s *Service) InjectMouseMove(ctx context.Context, req *InjectMouseMoveRequest) (*InjectResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.opts.Injector.MouseMove(req.X, req.Y); err != nil {
		return nil, statusFromError(err)
	}
	return &InjectResponse{Success: true}, nil
}

func (s *Service) InjectMouseClick(ctx context.Context, req *InjectMouseClickRequest) (*InjectResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	button, err := parseButton(req.Button)
	if err != nil {
		return nil, statusFromError(err)
	}
	if err := s.opts.Injector.MouseClick(req.X, req.Y, button); err != nil {
		return nil, statusFromError(err)
	}
	return &InjectResponse{Success: true}, nil
}

func (s *Service) InjectKeyPress(ctx context.Context, req *InjectKeyPressRequest) (*InjectResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.opts.Injector.KeyPress(req.Key, req.Modifiers); err != nil {
		return nil, statusFromError(err)
	}
	return &InjectResponse{Success: true}, nil
}

func parseButton(b string) (input.Button, error) {
	switch b {
	case "", "left":
		return input.ButtonLeft, nil
	case "right":
		return input.ButtonRight, nil
	case "middle":
		return input.ButtonMiddle, nil
	default:
		return "", bridgeerr.New(bridgeerr.KindInvalidInput, fmt.Sprintf("unknown mouse button %q", b))
	}
}

// --- read-only system queries ---

func (s *Service) GetSystemInfo(ctx context.Context, req *GetSystemInfoRequest) (*sysquery.SystemInfo, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	info := sysquery.GetSystemInfo(ctx)
	return &info, nil
}

func (s *Service) GetWindowList(ctx context.Context, req *GetWindowListRequest) (*GetWindowListResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		windows []sysquery.WindowInfo
		qErr    error
	)
	if err := s.runBlocking(ctx, func() {
		windows, qErr = sysquery.GetWindowList(ctx)
	}); err != nil {
		return nil, err
	}
	if qErr != nil {
		return nil, statusFromError(qErr)
	}
	return &GetWindowListResponse{Windows: windows}, nil
}

func (s *Service) GetProcessList(ctx context.Context, req *GetProcessListRequest) (*GetProcessListResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	procs, err := sysquery.GetProcessList(ctx, req.Limit)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &GetProcessListResponse{Processes: procs}, nil
}

func (s *Service) GetBrowserTabs(ctx context.Context, req *GetBrowserTabsRequest) (*GetBrowserTabsResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		tabs []sysquery.BrowserTab
		qErr error
	)
	if err := s.runBlocking(ctx, func() {
		tabs, qErr = sysquery.GetBrowserTabs(ctx)
	}); err != nil {
		return nil, err
	}
	if qErr != nil {
		return nil, statusFromError(qErr)
	}
	return &GetBrowserTabsResponse{Tabs: tabs}, nil
}

func (s *Service) ListFiles(ctx context.Context, req *ListFilesRequest) (*ListFilesResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		files []sysquery.FileInfo
		qErr  error
	)
	if err := s.runBlocking(ctx, func() {
		files, qErr = sysquery.ListFiles(req.Path)
	}); err != nil {
		return nil, err
	}
	if qErr != nil {
		return nil, statusFromError(qErr)
	}
	return &ListFilesResponse{Files: files}, nil
}

func (s *Service) GetClipboard(ctx context.Context, req *GetClipboardRequest) (*GetClipboardResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		text string
		qErr error
	)
	if err := s.runBlocking(ctx, func() {
		text, qErr = sysquery.GetClipboard(ctx)
	}); err != nil {
		return nil, err
	}
	if qErr != nil {
		return nil, statusFromError(qErr)
	}
	return &GetClipboardResponse{Text: text}, nil
}

// GetKeyboardShortcuts exposes C10's accessibility discovery: the UI tree
// is captured and its keyshortcuts attributes normalised. Invoked only on
// explicit client request, never per frame.
func (s *Service) GetKeyboardShortcuts(ctx context.Context, req *GetKeyboardShortcutsRequest) (*GetKeyboardShortcutsResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		snap a11y.Snapshot
		qErr error
	)
	if err := s.runBlocking(ctx, func() {
		snap, qErr = a11y.Capture(ctx)
	}); err != nil {
		return nil, err
	}
	if qErr != nil {
		return nil, statusFromError(qErr)
	}
	resp := &GetKeyboardShortcutsResponse{}
	for _, sc := range snap.Shortcuts {
		resp.Shortcuts = append(resp.Shortcuts, WireShortcut{
			Name:           sc.Name,
			RawForm:        sc.RawForm,
			NormalizedKeys: sc.NormalizedKeys,
			Command:        sc.Command,
			IsSingleKey:    sc.IsSingleKey,
		})
	}
	return resp, nil
}

// NegotiateWebRTC hands the controller an SDP answer for the alternative
// low-latency transport. The pipeline must already be streaming: the peer
// connection subscribes to the same fan-out as StreamFrames.
func (s *Service) NegotiateWebRTC(ctx context.Context, req *NegotiateWebRTCRequest) (*NegotiateWebRTCResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if s.opts.NegotiateWebRTC == nil {
		return nil, status.Error(codes.Unimplemented, "webrtc transport is not enabled")
	}
	if req.OfferSDP == "" {
		return nil, statusFromError(bridgeerr.New(bridgeerr.KindInvalidInput, "offer_sdp must not be empty"))
	}
	if !s.opts.Video.IsStreaming() {
		return nil, status.Error(codes.FailedPrecondition, "video pipeline is not streaming; call StartCapture first")
	}
	answer, err := s.opts.NegotiateWebRTC(req.OfferSDP)
	if err != nil {
		return nil, statusFromError(err)
	}
	return &NegotiateWebRTCResponse{AnswerSDP: answer}, nil
}

// --- applications & screenshots ---

func (s *Service) LaunchApplication(ctx context.Context, req *LaunchApplicationRequest) (*LaunchApplicationResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		entry launcher.Entry
		lErr  error
	)
	if err := s.runBlocking(ctx, func() {
		entry, lErr = s.opts.Apps.Launch(req.Name)
	}); err != nil {
		return nil, err
	}
	if lErr != nil {
		if bridgeerr.KindOf(lErr) == bridgeerr.KindFatal {
			notify.FatalError(lErr.Error())
		}
		return nil, statusFromError(lErr)
	}
	return &LaunchApplicationResponse{Success: true, MatchedName: entry.DisplayName}, nil
}

func (s *Service) CloseApplication(ctx context.Context, req *CloseApplicationRequest) (*CloseApplicationResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var (
		result launcher.CloseResult
		cErr   error
	)
	if err := s.runBlocking(ctx, func() {
		result, cErr = s.opts.Apps.Close(ctx, req.Name)
	}); err != nil {
		return nil, err
	}
	if cErr != nil {
		return nil, statusFromError(cErr)
	}
	return &CloseApplicationResponse{
		Success:       true,
		WindowsClosed: result.WindowsClosed,
		Signalled:     result.Signalled,
	}, nil
}

// TakeScreenshot reuses the on-demand frame path and returns a base64 PNG.
func (s *Service) TakeScreenshot(ctx context.Context, req *TakeScreenshotRequest) (*TakeScreenshotResponse, error) {
	frame, err := s.GetFrame(ctx, &GetFrameRequest{Format: "png"})
	if err != nil {
		return nil, err
	}
	return &TakeScreenshotResponse{
		ImageBase64: base64.StdEncoding.EncodeToString(frame.Data),
		Width:       frame.Width,
		Height:      frame.Height,
		Format:      "png",
	}, nil
}
