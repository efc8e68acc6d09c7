// Package config loads the optional YAML tuning file.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dimfu/metro/internal/tapper"
	"github.com/dimfu/metro/internal/transport"
)

const (
	MinTempo = 0
	MaxTempo = 600
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	Tempo    Tempo  `yaml:"tempo"`
	Tap      Tap    `yaml:"tap"`
	Audio    Audio  `yaml:"audio"`
}

// Tempo bounds are exclusive.
type Tempo struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

type Tap struct {
	Window   int           `yaml:"window"`
	ResetGap time.Duration `yaml:"reset_gap"`
}

type Audio struct {
	SampleRate     int           `yaml:"sample_rate"`
	Buffer         time.Duration `yaml:"buffer"`
	FadeIn         time.Duration `yaml:"fade_in"`
	FadeOut        time.Duration `yaml:"fade_out"`
	ClickLength    time.Duration `yaml:"click_length"`
	DownbeatSample string        `yaml:"downbeat_sample"`
	OffbeatSample  string        `yaml:"offbeat_sample"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Tempo:    Tempo{Min: MinTempo, Max: MaxTempo, Default: 120},
		Tap:      Tap{Window: tapper.DefaultWindow, ResetGap: tapper.DefaultResetGap},
		Audio: Audio{
			SampleRate:  44100,
			Buffer:      100 * time.Millisecond,
			FadeIn:      transport.DefaultFadeIn,
			FadeOut:     transport.DefaultFadeOut,
			ClickLength: transport.DefaultLength,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Tempo.Min < 0 || c.Tempo.Max <= c.Tempo.Min {
		return errors.Errorf("tempo bounds %v..%v are empty", c.Tempo.Min, c.Tempo.Max)
	}
	if c.Tempo.Default <= c.Tempo.Min || c.Tempo.Default >= c.Tempo.Max {
		return errors.Errorf("default tempo %v outside %v..%v", c.Tempo.Default, c.Tempo.Min, c.Tempo.Max)
	}
	if c.Tap.Window < 2 {
		return errors.Errorf("tap window %d must hold at least two taps", c.Tap.Window)
	}
	if c.Tap.ResetGap <= 0 {
		return errors.New("tap reset_gap must be positive")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.Errorf("invalid sample_rate %d", c.Audio.SampleRate)
	}
	if c.Audio.Buffer <= 0 || c.Audio.ClickLength <= 0 {
		return errors.New("audio buffer and click_length must be positive")
	}
	if c.Audio.FadeIn < 0 || c.Audio.FadeOut < 0 {
		return errors.New("fades cannot be negative")
	}
	return nil
}
