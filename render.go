package subtx

import (
	"fmt"
	"io"

	"github.com/multich/subtx/audio"
	"github.com/multich/subtx/utils"
)

// RenderPCM16 pulls a fixed number of mono frames from src and returns
// them as 16-bit PCM, with scale applied before conversion. Generators
// and composed channels are unbounded, so rendering is always
// frame-bounded; a bounded source that ends early just yields fewer
// samples.
func RenderPCM16(src audio.Source, frames int, scale float64, bufSize int) ([]int16, error) {
	if bufSize <= 0 {
		bufSize = 4096
	}

	pcm16 := make([]int16, 0, frames)
	buf := make([]float32, bufSize)
	s := float32(scale)

	for len(pcm16) < frames {
		want := frames - len(pcm16)
		if want > len(buf) {
			want = len(buf)
		}

		n, err := src.ReadSamples(buf[:want])
		for _, v := range buf[:n] {
			pcm16 = append(pcm16, utils.Float32ToInt16(v*s))
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm16, fmt.Errorf("%w", err)
		}
	}

	return pcm16, nil
}
