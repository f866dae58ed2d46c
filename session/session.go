// Package session validates channel configurations, derives the rational
// resampling ratios tying the pipeline stages together, and exposes each
// channel's combined program + sub-audible stream to the modulation
// stage.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/multich/subtx/audio"
	"github.com/multich/subtx/gate"
	"github.com/multich/subtx/queue"
	"github.com/multich/subtx/subaudible"
)

// CTCSSPolicy selects which channels may carry a CTCSS tone. Historic
// deployments restricted the tone to the first channel; the permissive
// policy is the default.
type CTCSSPolicy int

const (
	CTCSSAnyChannel CTCSSPolicy = iota
	CTCSSChannelOneOnly
)

// Defaults is the immutable set of fallback levels and gate settings a
// session applies where a channel leaves them unset. Pass it in the
// Config; there is no package-wide mutable state.
type Defaults struct {
	CTCSSLevel float64
	DCSLevel   float64

	GateOpenThreshold  float64
	GateCloseThreshold float64
	GateAttack         time.Duration
	GateRelease        time.Duration
}

// DefaultSettings returns the stock defaults.
func DefaultSettings() Defaults {
	return Defaults{
		CTCSSLevel:         subaudible.DefaultToneLevel,
		DCSLevel:           subaudible.DefaultDCSLevel,
		GateOpenThreshold:  0.05,
		GateCloseThreshold: 0.02,
		GateAttack:         10 * time.Millisecond,
		GateRelease:        250 * time.Millisecond,
	}
}

// ChannelSpec describes one channel: its playlist, its frequency offset
// relative to the composite center, and at most one sub-audible
// signaling scheme.
type ChannelSpec struct {
	Files  []string
	Offset float64 // Hz, relative to the composite center

	CTCSSFreq  float64 // Hz; 0 disables
	CTCSSLevel float64 // 0 means Defaults.CTCSSLevel

	DCSCode  string  // empty disables
	DCSLevel float64 // 0 means Defaults.DCSLevel

	// GateTones keys the sub-audible generator from program activity:
	// the tone or code is only transmitted while the program audio is
	// above the gate threshold.
	GateTones bool
}

// Config is a full session description. ChannelGains is optional; when
// present it must carry one linear gain per channel.
type Config struct {
	Channels     []ChannelSpec
	ChannelGains []float64

	AudioRate   int     // Hz; 0 infers from the first channel's first file
	ModRate     float64 // Hz, per-channel modulation rate
	TXRate      float64 // Hz, final transmit rate
	MasterScale float64
	Loop        bool

	Policy   CTCSSPolicy
	Defaults Defaults

	MaxDenominator int     // 0 means 1_000_000
	RateTolerance  float64 // 0 means 1e-6
}

const (
	defaultMaxDenominator = 1_000_000
	defaultRateTolerance  = 1e-6
)

// ChannelSpecs pairs parallel playlist and offset lists into specs,
// enforcing the count match up front.
func ChannelSpecs(fileGroups [][]string, offsets []float64) ([]ChannelSpec, error) {
	if len(fileGroups) != len(offsets) {
		return nil, fmt.Errorf(
			"%w: %d file queues but %d offsets", audio.ErrValidation, len(fileGroups), len(offsets),
		)
	}
	specs := make([]ChannelSpec, len(fileGroups))
	for i := range fileGroups {
		specs[i] = ChannelSpec{Files: fileGroups[i], Offset: offsets[i]}
	}
	return specs, nil
}

// Channel is one composed per-channel stream: program audio scaled by
// the channel gain, plus the optionally gated sub-audible overlay, at
// the session audio rate. It implements audio.Source. All of a
// channel's mutable playback state lives here, owned by the session and
// touched by nothing else.
type Channel struct {
	Offset float64
	Gain   float64

	program *queue.Source
	tone    audio.Source // nil when the channel carries no signaling
	keyGate *gate.Gate   // nil unless GateTones
	gain    float32
	toneBuf []float32
}

func (c *Channel) SampleRate() int { return c.program.SampleRate() }
func (c *Channel) Channels() int   { return 1 }
func (c *Channel) BufSize() int    { return c.program.BufSize() }

// Exhausted reports whether a non-looping channel has drained its
// playlist.
func (c *Channel) Exhausted() bool { return c.program.Exhausted() }

func (c *Channel) Close() error {
	err := c.program.Close()
	if c.tone != nil {
		if terr := c.tone.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// ReadSamples fills dst with the mixed channel stream. Errors from the
// playlist are returned to the driver; they concern only this channel.
func (c *Channel) ReadSamples(dst []float32) (int, error) {
	n, err := c.program.ReadSamples(dst)
	if err != nil {
		return n, err
	}

	for i := range dst[:n] {
		dst[i] *= c.gain
	}

	if c.tone == nil {
		return n, nil
	}

	if cap(c.toneBuf) < n {
		c.toneBuf = make([]float32, n)
	}
	tb := c.toneBuf[:n]
	if _, err := c.tone.ReadSamples(tb); err != nil {
		return n, err
	}

	if c.keyGate != nil {
		// Sidechain: program level drives the tone gain.
		for i := range tb {
			tb[i] *= c.keyGate.Step(dst[i])
		}
	}
	for i := range tb {
		dst[i] += tb[i]
	}

	return n, nil
}

// Session is a validated channel set plus the derived configuration the
// external modulation stage consumes.
type Session struct {
	Channels []*Channel

	AudioRate  int
	AudioToMod Ratio // audio rate -> modulation rate
	ModToTX    Ratio // modulation rate -> transmit rate
	Scale      float64
}

// Close closes every channel, returning the first error.
func (s *Session) Close() error {
	var first error
	for _, ch := range s.Channels {
		if err := ch.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Compose validates cfg in full, builds the per-channel streams, and
// derives the session ratios and normalization scale. Validation is
// fail-fast and complete: every configuration fault is reported at once,
// tagged with the offending channel, before any file is opened.
func Compose(cfg Config) (*Session, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	maxDenom := cfg.MaxDenominator
	if maxDenom == 0 {
		maxDenom = defaultMaxDenominator
	}
	tol := cfg.RateTolerance
	if tol == 0 {
		tol = defaultRateTolerance
	}

	sess := &Session{
		Channels:  make([]*Channel, 0, len(cfg.Channels)),
		AudioRate: cfg.AudioRate,
	}

	for i, spec := range cfg.Channels {
		ch, err := buildChannel(cfg, i, spec, sess.AudioRate)
		if err != nil {
			sess.Close()
			return nil, err
		}
		if sess.AudioRate == 0 {
			// First channel established the session rate; the rest are
			// normalized to it.
			sess.AudioRate = ch.SampleRate()
		}
		sess.Channels = append(sess.Channels, ch)
	}

	var err error
	sess.AudioToMod, err = DeriveRatio(float64(sess.AudioRate), cfg.ModRate, maxDenom, tol)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("audio to modulation rate: %w", err)
	}
	sess.ModToTX, err = DeriveRatio(cfg.ModRate, cfg.TXRate, maxDenom, tol)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("modulation to transmit rate: %w", err)
	}

	sess.Scale = compositeScale(cfg)

	return sess, nil
}

// compositeScale bounds worst-case additive clipping: a phase-agnostic
// ceiling over the sum of channel gains, not an exact peak estimate.
func compositeScale(cfg Config) float64 {
	total := float64(len(cfg.Channels))
	if cfg.ChannelGains != nil {
		sum := 0.0
		for _, g := range cfg.ChannelGains {
			if g < 0 {
				sum -= g
			} else {
				sum += g
			}
		}
		if sum > 0 {
			total = sum
		}
	}
	return cfg.MasterScale / max(1.0, total)
}

func buildChannel(cfg Config, idx int, spec ChannelSpec, audioRate int) (*Channel, error) {
	program, err := queue.New(spec.Files, cfg.Loop, audioRate)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", idx+1, err)
	}
	rate := program.SampleRate()

	ch := &Channel{
		Offset:  spec.Offset,
		Gain:    1.0,
		program: program,
		gain:    1.0,
	}
	if cfg.ChannelGains != nil {
		ch.Gain = cfg.ChannelGains[idx]
		ch.gain = float32(ch.Gain)
	}

	switch {
	case spec.CTCSSFreq > 0:
		level := spec.CTCSSLevel
		if level == 0 {
			level = cfg.Defaults.CTCSSLevel
		}
		ch.tone = subaudible.NewTone(rate, spec.CTCSSFreq, level)
	case spec.DCSCode != "":
		level := spec.DCSLevel
		if level == 0 {
			level = cfg.Defaults.DCSLevel
		}
		dcs, err := subaudible.NewDCS(spec.DCSCode, rate, level)
		if err != nil {
			program.Close()
			return nil, fmt.Errorf("channel %d: %w", idx+1, err)
		}
		ch.tone = dcs
	}

	if spec.GateTones && ch.tone != nil {
		g, err := gate.New(rate, gate.Config{
			OpenThreshold:  cfg.Defaults.GateOpenThreshold,
			CloseThreshold: cfg.Defaults.GateCloseThreshold,
			Attack:         cfg.Defaults.GateAttack,
			Release:        cfg.Defaults.GateRelease,
		})
		if err != nil {
			ch.Close()
			return nil, fmt.Errorf("channel %d: %w", idx+1, err)
		}
		ch.keyGate = g
	}

	return ch, nil
}

// validate checks the whole configuration and reports every fault at
// once, each tagged with its channel and field.
func validate(cfg Config) error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", audio.ErrValidation, fmt.Sprintf(format, args...)))
	}

	if len(cfg.Channels) == 0 {
		fail("at least one channel must be specified")
	}
	if cfg.ChannelGains != nil && len(cfg.ChannelGains) != len(cfg.Channels) {
		fail("channel gains must include one value per channel (%d gains, %d channels)",
			len(cfg.ChannelGains), len(cfg.Channels))
	}
	if cfg.ModRate <= 0 {
		fail("modulation rate must be positive, got %g", cfg.ModRate)
	}
	if cfg.TXRate <= 0 {
		fail("transmit rate must be positive, got %g", cfg.TXRate)
	}
	if cfg.AudioRate < 0 {
		fail("audio rate must not be negative, got %d", cfg.AudioRate)
	}
	if cfg.MasterScale <= 0 {
		fail("master scale must be positive, got %g", cfg.MasterScale)
	}
	if cfg.Defaults.GateCloseThreshold >= cfg.Defaults.GateOpenThreshold {
		fail("gate close threshold %g must be below open threshold %g",
			cfg.Defaults.GateCloseThreshold, cfg.Defaults.GateOpenThreshold)
	}

	for i, spec := range cfg.Channels {
		n := i + 1
		if len(spec.Files) == 0 {
			fail("channel %d: playlist must contain at least one file", n)
		}
		if spec.CTCSSFreq < 0 {
			fail("channel %d: CTCSS frequency must be positive, got %g", n, spec.CTCSSFreq)
		}
		if spec.CTCSSFreq > 0 && spec.CTCSSLevel < 0 {
			fail("channel %d: CTCSS level must be positive, got %g", n, spec.CTCSSLevel)
		}
		if spec.DCSCode != "" {
			if _, _, err := subaudible.ParseCode(spec.DCSCode); err != nil {
				errs = append(errs, fmt.Errorf("channel %d: %w", n, err))
			}
			if spec.DCSLevel < 0 {
				fail("channel %d: DCS level must be positive, got %g", n, spec.DCSLevel)
			}
		}
		if spec.CTCSSFreq > 0 && spec.DCSCode != "" {
			fail("channel %d: cannot enable both CTCSS and DCS simultaneously", n)
		}
		if cfg.Policy == CTCSSChannelOneOnly && i > 0 && spec.CTCSSFreq > 0 {
			fail("channel %d: policy restricts CTCSS to channel 1", n)
		}
	}

	return errors.Join(errs...)
}
