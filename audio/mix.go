package audio

import "io"

// Mix sums mono overlay sources onto a primary mono source of the same
// sample rate. The stream follows the primary: it ends when the primary
// ends. Overlays that run dry simply stop contributing. The caller is
// responsible for keeping the summed amplitude in range.
type Mix struct {
	primary  Source
	overlays []Source
	done     []bool
	tmp      []float32
}

func NewMix(primary Source, overlays ...Source) *Mix {
	return &Mix{
		primary:  primary,
		overlays: overlays,
		done:     make([]bool, len(overlays)),
		tmp:      make([]float32, 4096),
	}
}

func (m *Mix) SampleRate() int { return m.primary.SampleRate() }
func (m *Mix) Channels() int   { return 1 }
func (m *Mix) BufSize() int    { return m.primary.BufSize() }

func (m *Mix) Close() error {
	first := m.primary.Close()
	for _, s := range m.overlays {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Mix) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := m.primary.ReadSamples(dst)
	if n == 0 && err != nil {
		return 0, err
	}

	// Grow tmp if needed; never shrink, to avoid thrashing.
	if cap(m.tmp) < n {
		m.tmp = make([]float32, n)
	}
	tmp := m.tmp[:n]

	for i, s := range m.overlays {
		if m.done[i] {
			continue
		}
		k, oerr := s.ReadSamples(tmp)
		for j := range tmp[:k] {
			dst[j] += tmp[j]
		}
		if oerr == io.EOF {
			m.done[i] = true
		} else if oerr != nil {
			return n, oerr
		}
	}

	return n, err
}
