// Package config holds the immutable settings shared by the synthesizer,
// the note cache and the audio player.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgnsrekt/keypiano/internal/synth"
	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is built once at startup and passed by value.
type Config struct {
	// Directory holding one <Note>.wav per note
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`

	// Synthesis settings
	SampleRate int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	Volume     float64       `yaml:"volume" mapstructure:"volume"`
	Duration   time.Duration `yaml:"duration" mapstructure:"duration"`
	Timbre     synth.Timbre  `yaml:"timbre" mapstructure:"timbre"`

	// Build settings
	Workers int  `yaml:"workers" mapstructure:"workers"`
	Rebuild bool `yaml:"rebuild" mapstructure:"rebuild"`

	// Playback gain applied by the audio device (0.0 to 1.0)
	DeviceVolume float64 `yaml:"device_volume" mapstructure:"device_volume"`
}

// Default returns the stock piano settings.
func Default() Config {
	return Config{
		CacheDir:     "piano_cache",
		SampleRate:   44100,
		Volume:       0.5,
		Duration:     500 * time.Millisecond,
		Timbre:       synth.Piano,
		Workers:      1,
		Rebuild:      false,
		DeviceVolume: 1.0,
	}
}

// SetDefaults registers the default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("volume", d.Volume)
	v.SetDefault("duration", d.Duration)
	v.SetDefault("timbre", d.Timbre.String())
	v.SetDefault("workers", d.Workers)
	v.SetDefault("rebuild", d.Rebuild)
	v.SetDefault("device_volume", d.DeviceVolume)
}

// Load reads the settings out of v, expands the cache path and validates
// the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Config{}, fmt.Errorf("%w: unable to decode config: %w", ErrInvalidConfig, err)
	}

	dir, err := homedir.Expand(cfg.CacheDir)
	if err != nil {
		return Config{}, fmt.Errorf("unable to expand cache dir %q: %w", cfg.CacheDir, err)
	}
	cfg.CacheDir = dir

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache_dir must not be empty", ErrInvalidConfig)
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("%w: sample_rate must be between 8000 and 192000 Hz, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %.2f", ErrInvalidConfig, c.Volume)
	}
	if c.Duration <= 0 || c.Duration > 10*time.Second {
		return fmt.Errorf("%w: duration must be between 0 and 10s, got %s", ErrInvalidConfig, c.Duration)
	}
	if c.Timbre != synth.Piano && c.Timbre != synth.Organ {
		return fmt.Errorf("%w: unknown timbre %d", ErrInvalidConfig, int(c.Timbre))
	}
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("%w: workers must be between 1 and 64, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.DeviceVolume < 0 || c.DeviceVolume > 1 {
		return fmt.Errorf("%w: device_volume must be between 0.0 and 1.0, got %.2f", ErrInvalidConfig, c.DeviceVolume)
	}
	return nil
}

// Params returns the synthesis parameters for a note at freq Hz.
func (c Config) Params(freq float64) synth.Params {
	return synth.Params{
		Frequency:  freq,
		Duration:   c.Duration.Seconds(),
		SampleRate: c.SampleRate,
		Volume:     c.Volume,
		Timbre:     c.Timbre,
	}
}
