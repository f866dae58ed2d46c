// Package config loads session descriptions from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/multich/subtx/audio"
	"github.com/multich/subtx/session"
)

type File struct {
	AudioRate   int     `yaml:"audio_rate"`
	ModRate     float64 `yaml:"mod_rate"`
	TXRate      float64 `yaml:"tx_rate"`
	MasterScale float64 `yaml:"master_scale"`
	Loop        *bool   `yaml:"loop"`

	CTCSSPolicy string `yaml:"ctcss_policy"`

	Channels []ChannelConfig `yaml:"channels"`
	Defaults DefaultsConfig  `yaml:"defaults"`
}

type ChannelConfig struct {
	Files  []string `yaml:"files"`
	Offset float64  `yaml:"offset"`
	Gain   *float64 `yaml:"gain"`

	CTCSS      float64 `yaml:"ctcss"`
	CTCSSLevel float64 `yaml:"ctcss_level"`
	DCS        string  `yaml:"dcs"`
	DCSLevel   float64 `yaml:"dcs_level"`
	GateTones  bool    `yaml:"gate_tones"`
}

type DefaultsConfig struct {
	CTCSSLevel         float64 `yaml:"ctcss_level"`
	DCSLevel           float64 `yaml:"dcs_level"`
	GateOpenThreshold  float64 `yaml:"gate_open_threshold"`
	GateCloseThreshold float64 `yaml:"gate_close_threshold"`
	GateAttack         string  `yaml:"gate_attack"`
	GateRelease        string  `yaml:"gate_release"`
}

// Load reads a YAML session file and maps it onto a session.Config,
// filling unset fields with the stock defaults. Environment variables
// in the file are expanded before parsing.
func Load(path string) (*session.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse maps raw YAML onto a session.Config.
func Parse(data []byte) (*session.Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing session file: %v", audio.ErrValidation, err)
	}

	cfg := session.Config{
		AudioRate:   f.AudioRate,
		ModRate:     f.ModRate,
		TXRate:      f.TXRate,
		MasterScale: f.MasterScale,
		Loop:        true,
		Defaults:    session.DefaultSettings(),
	}
	if f.Loop != nil {
		cfg.Loop = *f.Loop
	}
	if cfg.ModRate == 0 {
		cfg.ModRate = 250_000
	}
	if cfg.TXRate == 0 {
		cfg.TXRate = 8_000_000
	}
	if cfg.MasterScale == 0 {
		cfg.MasterScale = 0.8
	}

	switch f.CTCSSPolicy {
	case "", "any":
		cfg.Policy = session.CTCSSAnyChannel
	case "channel1":
		cfg.Policy = session.CTCSSChannelOneOnly
	default:
		return nil, fmt.Errorf("%w: unknown ctcss_policy %q (use \"any\" or \"channel1\")",
			audio.ErrValidation, f.CTCSSPolicy)
	}

	if err := applyDefaults(&cfg.Defaults, f.Defaults); err != nil {
		return nil, err
	}

	gains := make([]float64, len(f.Channels))
	haveGains := false
	for i, ch := range f.Channels {
		cfg.Channels = append(cfg.Channels, session.ChannelSpec{
			Files:      ch.Files,
			Offset:     ch.Offset,
			CTCSSFreq:  ch.CTCSS,
			CTCSSLevel: ch.CTCSSLevel,
			DCSCode:    ch.DCS,
			DCSLevel:   ch.DCSLevel,
			GateTones:  ch.GateTones,
		})
		gains[i] = 1.0
		if ch.Gain != nil {
			gains[i] = *ch.Gain
			haveGains = true
		}
	}
	if haveGains {
		cfg.ChannelGains = gains
	}

	return &cfg, nil
}

func applyDefaults(d *session.Defaults, f DefaultsConfig) error {
	if f.CTCSSLevel != 0 {
		d.CTCSSLevel = f.CTCSSLevel
	}
	if f.DCSLevel != 0 {
		d.DCSLevel = f.DCSLevel
	}
	if f.GateOpenThreshold != 0 {
		d.GateOpenThreshold = f.GateOpenThreshold
	}
	if f.GateCloseThreshold != 0 {
		d.GateCloseThreshold = f.GateCloseThreshold
	}
	if f.GateAttack != "" {
		v, err := time.ParseDuration(f.GateAttack)
		if err != nil {
			return fmt.Errorf("%w: gate_attack: %v", audio.ErrValidation, err)
		}
		d.GateAttack = v
	}
	if f.GateRelease != "" {
		v, err := time.ParseDuration(f.GateRelease)
		if err != nil {
			return fmt.Errorf("%w: gate_release: %v", audio.ErrValidation, err)
		}
		d.GateRelease = v
	}
	return nil
}
