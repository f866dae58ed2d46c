// Package gate implements an envelope-driven activity gate with
// hysteresis and asymmetric attack/release ramps.
package gate

import (
	"fmt"
	"math"
	"time"

	"github.com/multich/subtx/audio"
)

// State of the gate envelope.
type State int

const (
	Closed State = iota
	Attacking
	Open
	Releasing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Attacking:
		return "attacking"
	case Open:
		return "open"
	case Releasing:
		return "releasing"
	}
	return "unknown"
}

// Config holds the gate thresholds and ramp durations. CloseThreshold
// must be strictly below OpenThreshold (hysteresis); zero durations make
// the corresponding transition instantaneous.
type Config struct {
	OpenThreshold  float64
	CloseThreshold float64
	Attack         time.Duration
	Release        time.Duration
}

// Gate is the envelope state machine. Step advances it one sample at a
// time, which lets callers drive the gain from one stream and apply it
// to another (the session keys sub-audible tones from program audio this
// way). For plain in-line gating wrap a Source with Filter.
type Gate struct {
	openThreshold  float64
	closeThreshold float64
	attackStep     float64 // gain delta per sample while attacking
	releaseStep    float64 // gain delta per sample while releasing

	state State
	gain  float64
}

func New(sampleRate int, cfg Config) (*Gate, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: gate sample rate must be positive", audio.ErrValidation)
	}
	if cfg.CloseThreshold >= cfg.OpenThreshold {
		return nil, fmt.Errorf(
			"%w: gate close threshold %g must be below open threshold %g",
			audio.ErrValidation, cfg.CloseThreshold, cfg.OpenThreshold,
		)
	}

	return &Gate{
		openThreshold:  cfg.OpenThreshold,
		closeThreshold: cfg.CloseThreshold,
		attackStep:     rampStep(cfg.Attack, sampleRate),
		releaseStep:    rampStep(cfg.Release, sampleRate),
	}, nil
}

// rampStep converts a ramp duration into a per-sample gain delta. A
// non-positive duration yields a full-range step: the transition
// completes on the first sample, with no division by zero.
func rampStep(d time.Duration, sampleRate int) float64 {
	samples := d.Seconds() * float64(sampleRate)
	if samples < 1 {
		return 1
	}
	return 1 / samples
}

// Step advances the envelope by one sample of the detector stream and
// returns the gain in [0,1]. A level exactly at the open threshold
// counts as active. Re-triggering during a release resumes the attack
// from the current partial gain, so the gain curve never jumps.
func (g *Gate) Step(level float32) float32 {
	l := math.Abs(float64(level))

	switch g.state {
	case Closed:
		if l >= g.openThreshold {
			g.state = Attacking
		}
	case Attacking:
		if l < g.closeThreshold {
			g.state = Releasing
		}
	case Open:
		if l < g.closeThreshold {
			g.state = Releasing
		}
	case Releasing:
		if l >= g.openThreshold {
			g.state = Attacking
		}
	}

	switch g.state {
	case Attacking:
		g.gain += g.attackStep
		if g.gain >= 1 {
			g.gain = 1
			g.state = Open
		}
	case Releasing:
		g.gain -= g.releaseStep
		if g.gain <= 0 {
			g.gain = 0
			g.state = Closed
		}
	}

	return float32(g.gain)
}

// State returns the current envelope phase.
func (g *Gate) State() State { return g.state }

// Gain returns the current gain without advancing the envelope.
func (g *Gate) Gain() float64 { return g.gain }

// Reset returns the gate to Closed with zero gain.
func (g *Gate) Reset() {
	g.state = Closed
	g.gain = 0
}
