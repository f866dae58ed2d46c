// Package vorbis decodes Ogg Vorbis files into audio.Source streams.
package vorbis
