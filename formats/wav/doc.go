// Package wav decodes PCM 16-bit WAV files into audio.Source streams
// and writes mono 16-bit PCM WAV output.
package wav
