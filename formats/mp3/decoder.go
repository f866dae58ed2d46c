// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/multich/subtx/audio"
	"github.com/multich/subtx/utils"
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

// source folds go-mp3's fixed two-channel output down to mono. go-mp3
// cannot report the original stream's channel count (mono streams come
// out dual-mono), so averaging is lossless for mono program material.
type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return 1 }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 4 } // mono samples per internal read

func (s *source) ReadSamples(dst []float32) (int, error) {
	// go-mp3 emits 16-bit little-endian stereo frames: one mono output
	// sample consumes 4 bytes.
	bytesNeeded := len(dst) * 4
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	frames := n / 4
	for i := 0; i < frames; i++ {
		l := int16(uint16(s.buf[4*i]) | uint16(s.buf[4*i+1])<<8)
		r := int16(uint16(s.buf[4*i+2]) | uint16(s.buf[4*i+3])<<8)
		dst[i] = (utils.Int16ToFloat32(l) + utils.Int16ToFloat32(r)) * 0.5
	}

	return frames, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
