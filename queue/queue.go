// Package queue implements gapless sequential playback across an
// ordered playlist with per-file sample-rate normalization.
package queue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/multich/subtx/audio"
	"github.com/multich/subtx/formats/aiff"
	"github.com/multich/subtx/formats/mp3"
	"github.com/multich/subtx/formats/vorbis"
	"github.com/multich/subtx/formats/wav"
)

const chunkFrames = 4096

// DefaultRegistry returns a decoder registry covering the supported
// playlist formats, keyed by file extension.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	return reg
}

// Source streams an ordered list of mono audio files as one continuous
// stream at a single target rate. With repeat enabled the playlist wraps
// forever; otherwise the stream plays through once and emits silence
// from then on. Zero-length files are skipped transparently.
//
// Files whose native rate differs from the target are converted through
// a stateful rate converter created per file: conversion carry state
// persists across fills of the same file but resets at every file
// switch, which can produce a small discontinuity at playlist and loop
// boundaries. That reset is deliberate and documented rather than
// smoothed over.
type Source struct {
	paths      []string
	repeat     bool
	registry   *audio.Registry
	sampleRate int

	next      int // playlist index of the next file to open
	cur       audio.Source
	curFile   *os.File
	curPath   string
	exhausted bool

	pending []float32 // converted samples not yet handed out
	pendOff int
	readBuf []float32
}

// New builds a queue over paths using the default decoder registry.
// targetRate 0 means "infer from the first file". The first playlist
// entry is opened during construction to establish the stream rate, so
// a missing or malformed first file fails here rather than mid-stream.
func New(paths []string, repeat bool, targetRate int) (*Source, error) {
	return NewWithRegistry(paths, repeat, targetRate, DefaultRegistry())
}

func NewWithRegistry(paths []string, repeat bool, targetRate int, registry *audio.Registry) (*Source, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: playlist must contain at least one file", audio.ErrValidation)
	}
	if targetRate < 0 {
		return nil, fmt.Errorf("%w: target sample rate %d is negative", audio.ErrValidation, targetRate)
	}

	q := &Source{
		paths:      paths,
		repeat:     repeat,
		registry:   registry,
		sampleRate: targetRate,
		readBuf:    make([]float32, chunkFrames),
	}

	if _, err := q.openNext(); err != nil {
		return nil, err
	}
	if q.sampleRate <= 0 {
		return nil, fmt.Errorf("%w: unable to determine a target sample rate", audio.ErrValidation)
	}

	return q, nil
}

func (q *Source) SampleRate() int { return q.sampleRate }
func (q *Source) Channels() int   { return 1 }
func (q *Source) BufSize() int    { return cap(q.readBuf) }

// Exhausted reports whether a non-repeating queue has played through its
// playlist and now produces only silence.
func (q *Source) Exhausted() bool { return q.exhausted }

func (q *Source) Close() error {
	q.closeCurrent()
	return nil
}

func (q *Source) closeCurrent() {
	if q.cur != nil {
		q.cur.Close()
		q.cur = nil
	}
	if q.curFile != nil {
		q.curFile.Close()
		q.curFile = nil
	}
	q.curPath = ""
}

// openNext advances the cursor and opens the next playlist entry,
// wrapping when repeating. Returns false when a non-repeating playlist
// has run out.
func (q *Source) openNext() (bool, error) {
	if q.next >= len(q.paths) {
		if !q.repeat {
			return false, nil
		}
		q.next = 0
	}

	path := q.paths[q.next]
	q.next++
	if err := q.open(path); err != nil {
		return false, err
	}
	return true, nil
}

func (q *Source) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", audio.ErrNotFound, path)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}

	dec, ok := q.registry.Get(filepath.Ext(path))
	if !ok {
		f.Close()
		return fmt.Errorf("%w: %s; use WAV, MP3, Ogg Vorbis or AIFF", audio.ErrFormat, path)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if src.Channels() != 1 {
		src.Close()
		f.Close()
		return fmt.Errorf("%w: %s must be mono but has %d channels", audio.ErrFormat, path, src.Channels())
	}
	if src.SampleRate() <= 0 {
		src.Close()
		f.Close()
		return fmt.Errorf("%w: %s reports sample rate %d", audio.ErrFormat, path, src.SampleRate())
	}

	if q.sampleRate == 0 {
		q.sampleRate = src.SampleRate()
	}
	if src.SampleRate() != q.sampleRate {
		// Fresh converter per file: carry state never crosses a file
		// boundary (see the type comment for the trade-off).
		src = audio.NewResampler(src, q.sampleRate)
	}

	q.cur = src
	q.curFile = f
	q.curPath = path
	return nil
}

// refill loads the next converted chunk into the pending buffer. spins
// counts consecutive attempts that produced nothing, so a playlist of
// only zero-length files cannot livelock a fill.
func (q *Source) refill(spins *int) error {
	q.pending = q.pending[:0]
	q.pendOff = 0

	if q.cur == nil {
		ok, err := q.openNext()
		if err != nil {
			return err
		}
		if !ok {
			q.exhausted = true
			return nil
		}
	}

	n, err := q.cur.ReadSamples(q.readBuf)
	if n > 0 {
		q.pending = q.readBuf[:n]
		*spins = 0
	}

	if err == io.EOF {
		// File exhausted; the cursor moves on at the next refill.
		q.closeCurrent()
		if n == 0 {
			*spins++
		}
		return nil
	}
	if err != nil {
		path := q.curPath
		q.closeCurrent()
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// ReadSamples always fills all of dst unless a hard error occurs:
// buffered converted samples first, then freshly decoded chunks, then
// silence once a non-repeating playlist is exhausted.
func (q *Source) ReadSamples(dst []float32) (int, error) {
	produced := 0
	spins := 0

	for produced < len(dst) {
		if q.pendOff >= len(q.pending) {
			if err := q.refill(&spins); err != nil {
				return produced, err
			}
			if q.exhausted || spins > len(q.paths) {
				for i := produced; i < len(dst); i++ {
					dst[i] = 0
				}
				return len(dst), nil
			}
			continue
		}

		n := copy(dst[produced:], q.pending[q.pendOff:])
		q.pendOff += n
		produced += n
	}

	return len(dst), nil
}
