// Package webrtcbridge offers the low-latency alternative transport: a
// controller that calls NegotiateWebRTC exchanges an SDP offer/answer
// with the bridge and receives the same encoded frame fan-out as an RTP
// media track instead of a gRPC stream.
package webrtcbridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/kestrelremote/bridge/internal/audio"
	"github.com/kestrelremote/bridge/internal/logging"
	"github.com/kestrelremote/bridge/internal/stream"
	"github.com/kestrelremote/bridge/internal/video"
)

var log = logging.L("webrtc")

// keyframeMinInterval rate-limits PLI-triggered keyframe forcing.
const keyframeMinInterval = 500 * time.Millisecond

// VideoSource is the slice of the stream manager a WebRTC session pulls
// from. *stream.Manager satisfies it.
type VideoSource interface {
	Subscribe() *stream.Subscription[video.EncodedFrame]
	RequestKeyframe()
}

// AudioSource is satisfied by *stream.AudioManager.
type AudioSource interface {
	Subscribe() *stream.Subscription[audio.EncodedFrame]
}

// Session is one peer connection streaming the pipeline's output.
type Session struct {
	pc         *webrtc.PeerConnection
	videoTrack *webrtc.TrackLocalStaticSample
	audioTrack *webrtc.TrackLocalStaticSample

	closeOnce sync.Once
	done      chan struct{}
}

// NewSession builds a peer connection around the remote offer and returns
// the local answer SDP. Frame pumping starts immediately; packets are
// dropped on the floor until ICE completes, which is the correct behavior
// for a live stream.
func NewSession(offerSDP string, videoSrc VideoSource, audioSrc AudioSource, fps int) (*Session, string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, "", fmt.Errorf("create peer connection: %w", err)
	}

	s := &Session{pc: pc, done: make(chan struct{})}

	videoTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeH264,
			ClockRate:   90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
		},
		"video", "bridge",
	)
	if err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("create video track: %w", err)
	}
	s.videoTrack = videoTrack

	videoSender, err := pc.AddTrack(videoTrack)
	if err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("add video track: %w", err)
	}
	go s.rtcpLoop(videoSender, videoSrc)

	if audioSrc != nil {
		audioTrack, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
			"audio", "bridge",
		)
		if err != nil {
			pc.Close()
			return nil, "", fmt.Errorf("create audio track: %w", err)
		}
		s.audioTrack = audioTrack
		if _, err := pc.AddTrack(audioTrack); err != nil {
			pc.Close()
			return nil, "", fmt.Errorf("add audio track: %w", err)
		}
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Info("peer connection state", "state", state.String())
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			s.Close()
		}
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("create answer: %w", err)
	}

	// Wait for ICE gathering so the answer carries its candidates inline:
	// the bridge has no trickle signalling channel of its own.
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-time.After(5 * time.Second):
		log.Warn("ICE gathering timed out, answering with partial candidates")
	}

	go s.pumpVideo(videoSrc, fps)
	if audioSrc != nil {
		go s.pumpAudio(audioSrc)
	}

	return s, pc.LocalDescription().SDP, nil
}

// rtcpLoop drains the sender's RTCP stream, converting picture-loss
// feedback into keyframe requests, rate-limited so a lossy link cannot
// turn the stream into all-IDR.
func (s *Session) rtcpLoop(sender *webrtc.RTPSender, src VideoSource) {
	buf := make([]byte, 1500)
	var lastKeyframe time.Time
	for {
		n, _, err := sender.Read(buf)
		if err != nil {
			return
		}
		packets, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			continue
		}
		for _, p := range packets {
			switch p.(type) {
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				if time.Since(lastKeyframe) < keyframeMinInterval {
					continue
				}
				lastKeyframe = time.Now()
				src.RequestKeyframe()
			}
		}
	}
}

func (s *Session) pumpVideo(src VideoSource, fps int) {
	sub := src.Subscribe()
	if sub == nil {
		log.Warn("webrtc session started without a running video pipeline")
		return
	}
	defer sub.Close()

	if fps <= 0 {
		fps = 30
	}
	frameDuration := time.Second / time.Duration(fps)

	src.RequestKeyframe()
	for {
		select {
		case <-s.done:
			return
		case frame, ok := <-sub.C():
			if !ok {
				return
			}
			err := s.videoTrack.WriteSample(media.Sample{
				Data:     frame.Data,
				Duration: frameDuration,
			})
			if err != nil {
				log.Debug("video sample write failed", "error", err)
			}
		}
	}
}

func (s *Session) pumpAudio(src AudioSource) {
	sub := src.Subscribe()
	if sub == nil {
		return
	}
	defer sub.Close()

	for {
		select {
		case <-s.done:
			return
		case packet, ok := <-sub.C():
			if !ok {
				return
			}
			err := s.audioTrack.WriteSample(media.Sample{
				Data:     packet.Data,
				Duration: audio.FrameDurationMs * time.Millisecond,
			})
			if err != nil {
				log.Debug("audio sample write failed", "error", err)
			}
		}
	}
}

// Close tears the peer connection down and stops the pumps. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.pc.Close(); err != nil {
			log.Debug("peer connection close failed", "error", err)
		}
	})
}
