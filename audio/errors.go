// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// Fault taxonomy shared by the higher level packages. Every
	// configuration-time failure wraps one of these so callers can match
	// with errors.Is regardless of which package detected it.
	ErrValidation   = errors.New("invalid configuration")
	ErrFormat       = errors.New("unsupported audio format")
	ErrNotFound     = errors.New("audio file not found")
	ErrInvalidCode  = errors.New("invalid squelch code")
	ErrRateMismatch = errors.New("no rational resampling ratio")
)
