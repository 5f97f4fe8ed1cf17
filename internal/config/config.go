// Package config parses the optional TOML configuration file of the
// emgstream command. CLI flags take precedence over file values.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Stream StreamConfig `toml:"stream"`
	Engine EngineConfig `toml:"engine"`
}

// StreamConfig maps transport settings.
type StreamConfig struct {
	URL           *string `toml:"url"`
	Subject       *string `toml:"subject"`
	EventsSubject *string `toml:"events-subject"`
}

// EngineConfig maps pipeline settings.
type EngineConfig struct {
	SampleRate      *float64 `toml:"sample-rate"`
	Channels        *int     `toml:"channels"`
	BandLow         *float64 `toml:"band-low"`
	BandHigh        *float64 `toml:"band-high"`
	Notch           *float64 `toml:"notch"`
	Envelope        *float64 `toml:"envelope"`
	WindowMs        *int     `toml:"window-ms"`
	RateThreshold   *float64 `toml:"rate-threshold"`
	Hysteresis      *float64 `toml:"hysteresis"`
	MinDurationMs   *int     `toml:"min-duration-ms"`
	RefractoryMs    *int     `toml:"refractory-ms"`
	RestSeconds     *float64 `toml:"rest-seconds"`
	MVCSeconds      *float64 `toml:"mvc-seconds"`
	SaturationLimit *float64 `toml:"saturation-limit"`
}

// Load reads a TOML config from the given path. A missing file is not an
// error; an empty path skips loading entirely.
func Load(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
