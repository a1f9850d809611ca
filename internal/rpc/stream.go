package rpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FrameStream is the server side of StreamFrames.
type FrameStream interface {
	Send(*VideoFrame) error
	grpc.ServerStream
}

// StreamFrames subscribes the caller to the broadcast fan-out and forwards
// encoded frames until the pipeline stops or the client disconnects. A
// lagging subscriber has its misses reported in DroppedFrames on the next
// delivered frame; it is never disconnected for lagging.
func (s *Service) StreamFrames(req *StreamFramesRequest, srv FrameStream) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	sub := s.opts.Video.Subscribe()
	if sub == nil {
		return status.Error(codes.FailedPrecondition, "video pipeline is not streaming; call StartCapture first")
	}
	defer sub.Close()

	// A mid-stream joiner cannot decode until the next IDR.
	s.opts.Video.RequestKeyframe()

	ctx := srv.Context()
	log.Info("frame subscriber attached")
	defer log.Info("frame subscriber detached")

	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case frame, ok := <-sub.C():
			if !ok {
				return nil // pipeline stopped: clean stream end
			}
			wire := &VideoFrame{
				Data:          frame.Data,
				Format:        int(frame.Format),
				TimestampMs:   frame.TimestampMs,
				Sequence:      frame.Sequence,
				IsKeyframe:    frame.IsKeyframe,
				PTS:           frame.PTS,
				DTS:           frame.DTS,
				Width:         frame.Width,
				Height:        frame.Height,
				DroppedFrames: sub.Lagged(),
			}
			if err := srv.Send(wire); err != nil {
				return err
			}
		}
	}
}

// AudioStream is the server side of StreamAudio.
type AudioStream interface {
	Send(*AudioFrame) error
	grpc.ServerStream
}

// StreamAudio mirrors StreamFrames for Opus packets.
func (s *Service) StreamAudio(req *StreamAudioRequest, srv AudioStream) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	sub := s.opts.Audio.Subscribe()
	if sub == nil {
		return status.Error(codes.FailedPrecondition, "audio pipeline is not streaming; call StartAudio first")
	}
	defer sub.Close()

	ctx := srv.Context()
	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case packet, ok := <-sub.C():
			if !ok {
				return nil
			}
			wire := &AudioFrame{
				Data:          packet.Data,
				TimestampMs:   packet.TimestampMs,
				Sequence:      packet.Sequence,
				SampleRate:    packet.SampleRate,
				Channels:      packet.Channels,
				DroppedFrames: sub.Lagged(),
			}
			if err := srv.Send(wire); err != nil {
				return err
			}
		}
	}
}

type frameStreamServer struct {
	grpc.ServerStream
}

func (s *frameStreamServer) Send(f *VideoFrame) error { return s.ServerStream.SendMsg(f) }

type audioStreamServer struct {
	grpc.ServerStream
}

func (s *audioStreamServer) Send(f *AudioFrame) error { return s.ServerStream.SendMsg(f) }
