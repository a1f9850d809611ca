package video

import (
	"fmt"
	"sync"

	openh264 "github.com/y9o/go-openh264"
)

// softwareBackend wraps Cisco's openh264 software encoder (via
// github.com/y9o/go-openh264). It converts incoming BGRA/RGBA/RGB24
// frames to NV12 using an
// amortised staging buffer so steady-state encoding never allocates beyond
// the openh264 call itself.
type softwareBackend struct {
	mu  sync.Mutex
	cfg EncoderConfig
	enc *openh264.Encoder

	yuvBuf        []byte
	frameCount    int
	forceKeyframe bool
	bitrateKbps   int
}

func newSoftwareBackend(cfg EncoderConfig) (backend, error) {
	bitrate := cfg.Preset.BitrateKbps(cfg.Width, cfg.Height)

	params := openh264.EncoderParams{
		Width:         cfg.Width,
		Height:        cfg.Height,
		BitrateKbps:   bitrate,
		FPS:           cfg.FPS,
		GOPLength:     cfg.KeyframeInterval,
		UsageType:     openh264.UsageCameraVideoRealTime,
		Profile:       profileConstant(cfg.Profile),
		EnableDenoise: false,
	}
	if !cfg.RealTime {
		params.UsageType = openh264.UsageScreenContentRealTime
	}

	enc, err := openh264.NewEncoder(params)
	if err != nil {
		return nil, fmt.Errorf("openh264: create encoder: %w", err)
	}

	return &softwareBackend{
		cfg:         cfg,
		enc:         enc,
		yuvBuf:      make([]byte, ExpectedSize(cfg.Width, cfg.Height, PixelFormatYUV420)),
		bitrateKbps: bitrate,
	}, nil
}

func profileConstant(profile string) openh264.Profile {
	switch profile {
	case "main":
		return openh264.ProfileMain
	case "high":
		return openh264.ProfileHigh
	default:
		return openh264.ProfileBaseline
	}
}

func (s *softwareBackend) Encode(frame RawFrame, forceKeyframe bool) (EncodedFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame.Format == PixelFormatYUV420 {
		copy(s.yuvBuf, frame.PixelBytes)
	} else {
		if len(s.yuvBuf) != ExpectedSize(frame.Width, frame.Height, PixelFormatYUV420) {
			s.yuvBuf = make([]byte, ExpectedSize(frame.Width, frame.Height, PixelFormatYUV420))
		}
		toNV12(s.yuvBuf, frame.PixelBytes, frame.Width, frame.Height, frame.Format)
	}

	if forceKeyframe || s.forceKeyframe {
		s.enc.ForceIntraFrame()
		s.forceKeyframe = false
	}

	nal, isKeyframe, err := s.enc.EncodeNV12(s.yuvBuf)
	if err != nil {
		return EncodedFrame{}, fmt.Errorf("openh264: encode: %w", err)
	}

	s.frameCount++
	return EncodedFrame{
		Data:        nal,
		Format:      WireFormatH264,
		TimestampMs: frame.TimestampMs,
		Sequence:    frame.Sequence,
		IsKeyframe:  isKeyframe || forceKeyframe,
		PTS:         frame.TimestampMs,
		DTS:         frame.TimestampMs,
		Width:       frame.Width,
		Height:      frame.Height,
	}, nil
}

func (s *softwareBackend) RequestKeyframe() {
	s.mu.Lock()
	s.forceKeyframe = true
	s.mu.Unlock()
}

func (s *softwareBackend) SetBitrateKbps(kbps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kbps <= 0 || kbps == s.bitrateKbps {
		return
	}
	s.bitrateKbps = kbps
	s.enc.SetBitrateKbps(kbps)
}

func (s *softwareBackend) IsHardwareAccelerated() bool { return false }

func (s *softwareBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return nil
	}
	err := s.enc.Close()
	s.enc = nil
	return err
}
