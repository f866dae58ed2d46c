// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/multich/subtx/utils"
)

// Resampler converts src to dstRate using Catmull-Rom cubic interpolation
// over a four-frame window. The window and the fractional read position
// are the converter's carry state: they persist across ReadSamples calls
// so successive fills of the same stream stay continuous, and they die
// with the Resampler when the stream ends. Build a fresh Resampler per
// input stream; reusing one across streams would smear interpolation
// history between unrelated audio.
// Includes basic anti-aliasing filtering when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	channels int
	step     float64 // source frames consumed per output frame

	// Interpolation window: window[0] = t-1 .. window[3] = t+2.
	window [4][]float32
	filled [4]bool
	primed bool

	// Fractional position between window[1] and window[2].
	pos float64

	// One-pole low-pass ahead of the interpolator when decimating.
	lowpass []float32
	lpReady bool

	frameBuf []float32
	eof      bool
}

// lowpassAlpha sets the one-pole cutoff near the destination Nyquist.
const lowpassAlpha = 0.5

func NewResampler(src Source, dstRate int) *Resampler {
	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		channels: src.Channels(),
		step:     float64(src.SampleRate()) / float64(dstRate),
	}
	r.frameBuf = make([]float32, r.channels)
	for i := range r.window {
		r.window[i] = make([]float32, r.channels)
	}
	if r.step > 1.0 {
		r.lowpass = make([]float32, r.channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// readFrame reads exactly one source frame into dst. A short read at the
// end of the stream reports io.EOF.
func (r *Resampler) readFrame(dst []float32) error {
	n, err := r.src.ReadSamples(dst)
	if n < r.channels {
		if err == nil || err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w", err)
	}
	if err == io.EOF {
		r.eof = true
	}

	if r.lowpass != nil {
		// Seed the filter state with the first real frame so constant
		// streams pass through without a warm-up transient.
		if !r.lpReady {
			copy(r.lowpass, dst[:r.channels])
			r.lpReady = true
		}
		for c := 0; c < r.channels; c++ {
			// y[n] = alpha*x[n] + (1-alpha)*y[n-1]
			dst[c] = lowpassAlpha*dst[c] + (1-lowpassAlpha)*r.lowpass[c]
			r.lowpass[c] = dst[c]
		}
	}
	return nil
}

// prime fills the initial four-frame window, duplicating the last real
// frame into any slot the source could not fill.
func (r *Resampler) prime() error {
	last := -1
	for i := range r.window {
		if err := r.readFrame(r.window[i]); err != nil {
			if err == io.EOF {
				r.eof = true
				break
			}
			return err
		}
		r.filled[i] = true
		last = i
	}
	if last < 0 {
		return io.EOF
	}
	for i := last + 1; i < len(r.window); i++ {
		copy(r.window[i], r.window[last])
		r.filled[i] = true
	}
	r.primed = true
	return nil
}

// advance shifts the window one source frame forward. Past the end of
// the stream the last real frame is duplicated as the cubic tail; EOF is
// reported once the interpolation span itself has run out of real data.
func (r *Resampler) advance() error {
	copy(r.window[0], r.window[1])
	copy(r.window[1], r.window[2])
	copy(r.window[2], r.window[3])
	r.filled[0], r.filled[1], r.filled[2] = r.filled[1], r.filled[2], r.filled[3]

	if !r.eof {
		if err := r.readFrame(r.frameBuf); err != nil {
			if err != io.EOF {
				return err
			}
			r.eof = true
		} else {
			copy(r.window[3], r.frameBuf)
			r.filled[3] = true
			return nil
		}
	}

	r.filled[3] = false
	copy(r.window[3], r.window[2])
	if !r.filled[2] {
		return io.EOF
	}
	return nil
}

// ReadSamples produces samples at the destination rate. dst length must
// be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	frames := len(dst) / r.channels

	for written < frames {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if err == io.EOF {
					if written == 0 {
						return 0, io.EOF
					}
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		alpha := float32(r.pos)
		base := written * r.channels
		for c := 0; c < r.channels; c++ {
			dst[base+c] = utils.CubicInterpolate(
				r.window[0][c], r.window[1][c], r.window[2][c], r.window[3][c], alpha,
			)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
