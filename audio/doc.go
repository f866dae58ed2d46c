// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level streaming primitives shared by
// the rest of the module.
//
// # Source Interface
//
// The Source interface is the single streaming contract:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders, generators and filters all implement it, so they chain into
// pull-based processing pipelines driven entirely by the caller.
//
// # Resampling
//
// Resampler converts a stream to a new rate with Catmull-Rom cubic
// interpolation. Its carry state (the interpolation window and the
// fractional position) persists across reads of one stream; build a new
// Resampler per stream.
//
// # Mixing and gain
//
// Gain applies a constant linear factor; Mix sums mono overlays onto a
// primary stream. Both pass io.EOF semantics through from their inputs.
//
// # Sample format
//
// Samples are float32 in [-1, 1]. 0.0 is silence; the normalized range
// keeps intermediate processing free of bit-depth concerns.
//
// # Error taxonomy
//
// The sentinel errors in this package (ErrValidation, ErrFormat,
// ErrNotFound, ErrInvalidCode, ErrRateMismatch) classify every
// configuration-time failure across the module; match them with
// errors.Is.
package audio
