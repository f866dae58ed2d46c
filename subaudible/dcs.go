package subaudible

import (
	"fmt"
	"math"

	"github.com/multich/subtx/audio"
)

// CDCSS transmission constants. The pattern repeats at the bit rate;
// each bit keys one of two sub-audible tone frequencies.
const (
	BitRate   = 134.4 // bits per second
	MarkFreq  = 134.4 // Hz, bit value 1
	SpaceFreq = 114.3 // Hz, bit value 0

	// DefaultDCSLevel is the rendered amplitude used when a channel does
	// not set its own.
	DefaultDCSLevel = 0.25
)

// DCS renders a coded-squelch pattern as continuous-phase two-tone FSK.
// The single oscillator phase advances through bit boundaries without
// ever resetting; only its per-sample increment switches between mark
// and space, so the waveform has no discontinuities. DCS is unbounded
// and never returns io.EOF.
type DCS struct {
	pattern    Codeword
	sampleRate float64
	amplitude  float64

	samplesPerBit float64
	bitIndex      int
	bitAcc        float64 // fractional sample position inside the current bit
	phase         float64
}

func NewDCS(code string, sampleRate int, amplitude float64) (*DCS, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive for DCS generation", audio.ErrValidation)
	}

	pattern, err := NewCodeword(code)
	if err != nil {
		return nil, err
	}

	return &DCS{
		pattern:       pattern,
		sampleRate:    float64(sampleRate),
		amplitude:     amplitude,
		samplesPerBit: float64(sampleRate) / BitRate,
	}, nil
}

// Pattern returns the codeword being transmitted.
func (d *DCS) Pattern() Codeword { return d.pattern }

func (d *DCS) SampleRate() int { return int(d.sampleRate) }
func (d *DCS) Channels() int   { return 1 }
func (d *DCS) BufSize() int    { return 4096 }
func (d *DCS) Close() error    { return nil }

func (d *DCS) ReadSamples(dst []float32) (int, error) {
	for i := range dst {
		freq := SpaceFreq
		if d.pattern.Bit(d.bitIndex) == 1 {
			freq = MarkFreq
		}

		dst[i] = float32(d.amplitude * math.Sin(d.phase))
		d.phase += 2 * math.Pi * freq / d.sampleRate
		if d.phase >= 2*math.Pi {
			d.phase -= 2 * math.Pi
		}

		// The bit period is fractional; carrying the remainder keeps the
		// long-run bit rate exact.
		d.bitAcc++
		if d.bitAcc >= d.samplesPerBit {
			d.bitAcc -= d.samplesPerBit
			d.bitIndex = (d.bitIndex + 1) % CodewordBits
		}
	}
	return len(dst), nil
}
