// SPDX-License-Identifier: EPL-2.0

// Package subtx assembles multiple independently-sourced audio program
// streams into per-channel composite signals carrying optional
// sub-audible signaling, for a downstream narrowband-FM transmitter.
//
// The module covers the audio-domain core only: gapless playlist
// playback with sample-rate normalization (queue), CTCSS tone and DCS
// coded-squelch generation (subaudible), an envelope-driven activity
// gate (gate), and per-session validation with exact-rational
// resampling-ratio derivation (session). FM modulation, frequency
// translation and radio hardware live outside this module and consume
// it through the audio.Source streams and the derived session
// configuration.
//
// # Streaming model
//
// Everything that produces or transforms samples implements
// audio.Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Sources are pull-based: an external driver requests fixed-size blocks
// and imposes whatever real-time cadence it needs. Bounded sources
// (file decoders) finish with io.EOF; generators and composed channels
// never do. Calls to one Source must be sequential; distinct channels
// share no state and may be driven in parallel.
//
// # Composing a session
//
//	cfg := session.Config{
//	    Channels: []session.ChannelSpec{
//	        {Files: []string{"patrol.wav"}, Offset: -12500, CTCSSFreq: 67.0},
//	        {Files: []string{"ads.mp3"}, Offset: 12500, DCSCode: "023N"},
//	    },
//	    ModRate:     250e3,
//	    TXRate:      8e6,
//	    MasterScale: 0.8,
//	    Loop:        true,
//	    Defaults:    session.DefaultSettings(),
//	}
//	sess, err := session.Compose(cfg)
//
// Compose validates the whole configuration up front and reports every
// fault at once. The resulting Session exposes one mixed stream per
// channel plus the derived audio→modulation and modulation→transmit
// rational ratios and the master normalization scale.
//
// # Supported formats
//
// Playlists may mix mono WAV (PCM 16-bit), MP3, Ogg Vorbis and AIFF
// (PCM 16-bit) files of arbitrary sample rates; each file is converted
// to the session audio rate as it streams.
package subtx
