// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files into mono audio.Source streams.
//
// The underlying decoder always produces two-channel PCM, so the
// package folds left and right down to mono; mono source material
// (dual-mono after decode) survives the fold unchanged.
package mp3
