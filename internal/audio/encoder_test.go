package audio

import (
	"errors"
	"testing"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

func silentFrame(sampleRate, channels int) Frame {
	return Frame{
		Samples:    make([]float32, SamplesPerFrame(sampleRate, channels)),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

func TestEncoderRejectsMismatchedFrameAsFatal(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Skipf("opus unavailable: %v", err)
	}

	_, err = enc.Encode(silentFrame(44100, 2))
	if err == nil {
		t.Fatal("expected error for sample-rate mismatch")
	}
	var be *bridgeerr.Error
	if !errors.As(err, &be) || be.Kind != bridgeerr.KindFatal {
		t.Fatalf("mismatch must be Fatal, got %v", err)
	}

	_, err = enc.Encode(silentFrame(48000, 1))
	if err == nil {
		t.Fatal("expected error for channel mismatch")
	}
}

func TestEncoderSequenceIsMonotonic(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Skipf("opus unavailable: %v", err)
	}

	var prev uint64
	for i := 0; i < 5; i++ {
		out, err := enc.Encode(silentFrame(48000, 2))
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		if out.Sequence != prev+1 {
			t.Fatalf("sequence = %d, want %d", out.Sequence, prev+1)
		}
		prev = out.Sequence
		if len(out.Data) == 0 {
			t.Fatal("encoded packet is empty")
		}
		if out.SampleRate != 48000 || out.Channels != 2 {
			t.Fatalf("metadata not carried through: %+v", out)
		}
	}
}

func TestEncoderRejectsShortFrame(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig())
	if err != nil {
		t.Skipf("opus unavailable: %v", err)
	}
	_, err = enc.Encode(Frame{Samples: make([]float32, 10), SampleRate: 48000, Channels: 2})
	if bridgeerr.KindOf(err) != bridgeerr.KindInvalidInput {
		t.Fatalf("short frame must be InvalidInput, got %v", err)
	}
}

func TestFloat32ToInt16Clamps(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-2, -32767},
	}
	for _, c := range cases {
		if got := float32ToInt16(c.in); got != c.want {
			t.Fatalf("float32ToInt16(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
