package rpc

import (
	"bytes"
	"image"
	"image/png"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/video"
)

// encodePNG converts a raw frame to PNG for the on-demand GetFrame and
// TakeScreenshot paths. Only called from the blocking pool: PNG encoding a
// full desktop is tens of milliseconds of pure CPU.
func encodePNG(raw video.RawFrame) ([]byte, error) {
	if err := raw.Validate(); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindInvalidInput, "raw frame failed validation", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, raw.Width, raw.Height))
	switch raw.Format {
	case video.PixelFormatBGRA:
		for i := 0; i+3 < len(raw.PixelBytes); i += 4 {
			img.Pix[i+0] = raw.PixelBytes[i+2]
			img.Pix[i+1] = raw.PixelBytes[i+1]
			img.Pix[i+2] = raw.PixelBytes[i+0]
			img.Pix[i+3] = 0xff
		}
	case video.PixelFormatRGBA:
		copy(img.Pix, raw.PixelBytes)
	case video.PixelFormatRGB24:
		for src, dst := 0, 0; src+2 < len(raw.PixelBytes); src, dst = src+3, dst+4 {
			img.Pix[dst+0] = raw.PixelBytes[src+0]
			img.Pix[dst+1] = raw.PixelBytes[src+1]
			img.Pix[dst+2] = raw.PixelBytes[src+2]
			img.Pix[dst+3] = 0xff
		}
	default:
		return nil, bridgeerr.New(bridgeerr.KindInvalidInput, "cannot encode this pixel format to PNG")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindTransient, "png encode failed", err)
	}
	return buf.Bytes(), nil
}
