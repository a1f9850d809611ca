package video

import "testing"

func TestPresetBitrateMonotonicity(t *testing.T) {
	const w, h = 1920, 1080
	low := PresetLow().BitrateKbps(w, h)
	medium := PresetMedium().BitrateKbps(w, h)
	high := PresetHigh().BitrateKbps(w, h)

	if !(low < medium && medium < high) {
		t.Fatalf("expected low < medium < high, got %d, %d, %d", low, medium, high)
	}
}

func TestPresetCustomBitrateIsExact(t *testing.T) {
	const kbps = 3456
	got := PresetCustom(kbps).BitrateKbps(1920, 1080)
	if got != kbps {
		t.Fatalf("custom bitrate = %d, want %d", got, kbps)
	}
}

func TestPresetBitrateScalesWithResolution(t *testing.T) {
	hd := PresetMedium().BitrateKbps(1280, 720)
	fhd := PresetMedium().BitrateKbps(1920, 1080)
	if fhd <= hd {
		t.Fatalf("expected bitrate to scale up with resolution: hd=%d fhd=%d", hd, fhd)
	}
}

func TestRawFrameValidate(t *testing.T) {
	f := RawFrame{
		PixelBytes: make([]byte, 4*2*2),
		Width:      2,
		Height:     2,
		Format:     PixelFormatBGRA,
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected valid frame, got %v", err)
	}

	bad := f
	bad.PixelBytes = make([]byte, 3)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error for mismatched buffer size")
	}
}

func TestExpectedSize(t *testing.T) {
	cases := []struct {
		format PixelFormat
		want   int
	}{
		{PixelFormatBGRA, 4},
		{PixelFormatRGBA, 4},
		{PixelFormatRGB24, 3},
		{PixelFormatYUV420, 1},
	}
	for _, c := range cases {
		got := ExpectedSize(2, 2, c.format)
		want := c.want * 4
		if c.format == PixelFormatYUV420 {
			want = 6 // 4 Y + 2 UV for a 2x2 frame
		}
		if got != want {
			t.Errorf("ExpectedSize(2,2,%s) = %d, want %d", c.format, got, want)
		}
	}
}
