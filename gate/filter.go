package gate

import (
	"fmt"

	"github.com/multich/subtx/audio"
)

// Filter gates a stream by its own level: every output sample is the
// input sample scaled by the envelope gain that sample produces.
type Filter struct {
	src audio.Source
	g   *Gate
}

func NewFilter(src audio.Source, cfg Config) (*Filter, error) {
	g, err := New(src.SampleRate(), cfg)
	if err != nil {
		return nil, err
	}
	return &Filter{src: src, g: g}, nil
}

func (f *Filter) SampleRate() int { return f.src.SampleRate() }
func (f *Filter) Channels() int   { return f.src.Channels() }
func (f *Filter) BufSize() int    { return f.src.BufSize() }

func (f *Filter) Close() error {
	err := f.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (f *Filter) ReadSamples(dst []float32) (int, error) {
	n, err := f.src.ReadSamples(dst)
	for i := range dst[:n] {
		dst[i] *= f.g.Step(dst[i])
	}
	return n, err
}
