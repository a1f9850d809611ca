// Package video implements the capture→encode half of the bridge's video
// pipeline: the raw-frame shape produced by platform capture and the H.264
// encoder that turns it into NAL units, with a hardware backend and a
// software fallback.
package video

import "fmt"

// PixelFormat identifies the byte layout of a RawFrame's pixel buffer.
type PixelFormat int

const (
	PixelFormatBGRA PixelFormat = iota
	PixelFormatRGBA
	PixelFormatRGB24
	PixelFormatYUV420
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGRA:
		return "bgra"
	case PixelFormatRGBA:
		return "rgba"
	case PixelFormatRGB24:
		return "rgb24"
	case PixelFormatYUV420:
		return "yuv420"
	default:
		return "unknown"
	}
}

// ExpectedSize returns the number of pixel bytes a frame of the given
// dimensions and format must carry, the invariant RawFrame.PixelBytes is
// checked against.
func ExpectedSize(width, height int, format PixelFormat) int {
	switch format {
	case PixelFormatBGRA, PixelFormatRGBA:
		return width * height * 4
	case PixelFormatRGB24:
		return width * height * 3
	case PixelFormatYUV420:
		return width * height * 3 / 2
	default:
		return 0
	}
}

// RawFrame is one uncompressed frame produced by platform capture. Sequence
// is strictly monotonic within a capture session, starting at 1.
type RawFrame struct {
	PixelBytes  []byte
	Width       int
	Height      int
	Format      PixelFormat
	TimestampMs int64
	Sequence    uint64
}

// Validate checks the len(PixelBytes) == expected_size(width, height,
// format) invariant.
func (f RawFrame) Validate() error {
	want := ExpectedSize(f.Width, f.Height, f.Format)
	if len(f.PixelBytes) != want {
		return fmt.Errorf("raw frame %dx%d format %s: expected %d bytes, got %d", f.Width, f.Height, f.Format, want, len(f.PixelBytes))
	}
	return nil
}

// WireFormat is the format code an EncodedFrame's Data carries on the wire.
type WireFormat int

const (
	WireFormatRawBGRA WireFormat = iota
	WireFormatJPEG
	WireFormatPNG
	WireFormatH264
)

// EncodedFrame is one compressed video frame. Data holds one or more NAL
// units for WireFormatH264, laid out consistently (length-prefixed or
// Annex-B, chosen once at encoder init) for the life of the session.
type EncodedFrame struct {
	Data        []byte
	Format      WireFormat
	TimestampMs int64
	Sequence    uint64
	IsKeyframe  bool
	PTS         int64
	DTS         int64
	Width       int
	Height      int
}
