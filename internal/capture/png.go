package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kestrelremote/bridge/internal/video"
)

// decodePNGToBGRA decodes a captured PNG into a flat BGRA buffer, cropping
// to the requested region if one was specified. Shared by every backend
// that captures through a PNG intermediate (external tools, the HTTP
// capture endpoint).
func decodePNGToBGRA(data []byte, cfg Config) ([]byte, int, int, video.PixelFormat, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("decoding captured png: %w", err)
	}

	bounds := img.Bounds()
	rect := bounds
	if cfg.Mode == ModeRegion && cfg.Width > 0 && cfg.Height > 0 {
		rect = image.Rect(cfg.X, cfg.Y, cfg.X+cfg.Width, cfg.Y+cfg.Height).Intersect(bounds)
	}
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0, 0, fmt.Errorf("captured region is empty after crop")
	}

	out := make([]byte, w*h*4)
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, bch, _ := img.At(x, y).RGBA()
			out[i+0] = byte(bch >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(r >> 8)
			out[i+3] = 0xff
			i += 4
		}
	}
	return out, w, h, video.PixelFormatBGRA, nil
}
