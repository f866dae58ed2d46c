package subaudible

import "math"

// DefaultToneLevel is the CTCSS amplitude used when a channel does not
// set its own. Sub-audible tones run well below program level so they
// key receiver squelch without being heard.
const DefaultToneLevel = 0.20

// Tone is a continuous sub-audible sinusoid (CTCSS). The oscillator
// phase advances monotonically across ReadSamples calls, so the output
// stays continuous no matter how the driver slices its fills. Tone is
// unbounded and never returns io.EOF.
type Tone struct {
	sampleRate int
	amplitude  float64
	phase      float64
	step       float64 // radians per sample
}

func NewTone(sampleRate int, freqHz, amplitude float64) *Tone {
	return &Tone{
		sampleRate: sampleRate,
		amplitude:  amplitude,
		step:       2 * math.Pi * freqHz / float64(sampleRate),
	}
}

func (t *Tone) SampleRate() int { return t.sampleRate }
func (t *Tone) Channels() int   { return 1 }
func (t *Tone) BufSize() int    { return 4096 }
func (t *Tone) Close() error    { return nil }

func (t *Tone) ReadSamples(dst []float32) (int, error) {
	for i := range dst {
		dst[i] = float32(t.amplitude * math.Sin(t.phase))
		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return len(dst), nil
}
