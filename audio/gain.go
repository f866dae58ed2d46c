package audio

import "fmt"

// Gain multiplies every sample by a constant linear factor. Used for
// per-channel loudness trim ahead of mixing.
type Gain struct {
	src    Source
	factor float32
}

func NewGain(src Source, factor float64) *Gain {
	return &Gain{src: src, factor: float32(factor)}
}

func (g *Gain) SampleRate() int { return g.src.SampleRate() }
func (g *Gain) Channels() int   { return g.src.Channels() }
func (g *Gain) BufSize() int    { return g.src.BufSize() }

func (g *Gain) Close() error {
	err := g.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (g *Gain) ReadSamples(dst []float32) (int, error) {
	n, err := g.src.ReadSamples(dst)
	for i := range dst[:n] {
		dst[i] *= g.factor
	}
	return n, err
}
