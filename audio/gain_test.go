package audio

import (
	"io"
	"math"
	"testing"
)

func TestGain_AppliesFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		factor float64
		input  float32
		want   float32
	}{
		{"unity", 1.0, 0.5, 0.5},
		{"attenuate", 0.5, 0.5, 0.25},
		{"boost", 2.0, 0.25, 0.5},
		{"mute", 0.0, 0.5, 0.0},
		{"invert", -1.0, 0.5, -0.5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newConstantSource(48000, 1, 100, tt.input)
			g := NewGain(src, tt.factor)

			buf := make([]float32, 100)
			n, err := g.ReadSamples(buf)
			if err != nil && err != io.EOF {
				t.Fatalf("ReadSamples() error = %v", err)
			}

			for i := range buf[:n] {
				if math.Abs(float64(buf[i]-tt.want)) > 1e-6 {
					t.Fatalf("buf[%d] = %v, want %v", i, buf[i], tt.want)
				}
			}
		})
	}
}

func TestGain_Metadata(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 100)
	g := NewGain(src, 0.5)

	if g.SampleRate() != 44100 {
		t.Errorf("Gain.SampleRate() = %d, want 44100", g.SampleRate())
	}
	if g.Channels() != 2 {
		t.Errorf("Gain.Channels() = %d, want 2", g.Channels())
	}
}

func TestGain_PropagatesEOF(t *testing.T) {
	t.Parallel()

	src := newConstantSource(48000, 1, 10, 0.5)
	g := NewGain(src, 0.5)

	buf := make([]float32, 100)
	n, err := g.ReadSamples(buf)
	if err != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF", err)
	}
	if n != 10 {
		t.Errorf("ReadSamples() n = %d, want 10", n)
	}
}
