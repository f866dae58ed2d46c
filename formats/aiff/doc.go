// Package aiff decodes PCM 16-bit AIFF files into audio.Source streams.
package aiff
