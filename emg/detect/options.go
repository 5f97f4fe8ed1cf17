package detect

import (
	"errors"
	"time"
)

var (
	// ErrInvalidHysteresis reports a hysteresis factor outside [0.3, 0.7].
	ErrInvalidHysteresis = errors.New("detect: hysteresis factor must be in [0.3, 0.7]")

	// ErrInvalidRateThreshold reports a non-positive rate threshold.
	ErrInvalidRateThreshold = errors.New("detect: rate threshold must be positive")

	// ErrInvalidSmoothing reports a smoothing window below one sample.
	ErrInvalidSmoothing = errors.New("detect: smoothing window must be at least 1")

	// ErrInvalidDuration reports a non-positive minimum contraction duration.
	ErrInvalidDuration = errors.New("detect: minimum duration must be positive")

	// ErrInvalidChannels reports a non-positive channel count.
	ErrInvalidChannels = errors.New("detect: channel count must be positive")

	// ErrInvalidChannel reports a channel index outside the configured range.
	ErrInvalidChannel = errors.New("detect: channel index out of range")

	// ErrNotCalibrated reports detection input before thresholds were set.
	ErrNotCalibrated = errors.New("detect: channel has no calibrated threshold")
)

// Config holds the detection parameters.
type Config struct {
	// RateThreshold is the smoothed dRMS/dt onset threshold in V/s.
	RateThreshold float64

	// SmoothingWindow is the number of rate samples averaged to suppress
	// spike noise in the derivative.
	SmoothingWindow int

	// HysteresisFactor scales the calibrated threshold down for offset
	// detection. Must lie in [0.3, 0.7]: low enough to avoid chatter at
	// the onset boundary, high enough to still release.
	HysteresisFactor float64

	// OffsetHold is the number of consecutive below-hysteresis ticks
	// required to confirm an offset. Zero means same as SmoothingWindow.
	OffsetHold int

	// MinDuration discards confirmed events shorter than this span.
	MinDuration time.Duration

	// Refractory suppresses onsets for this long after a confirmed offset.
	Refractory time.Duration

	// MergeGap coalesces an event whose onset follows the previous
	// event's offset by no more than this span. Zero means twice the
	// refractory period.
	MergeGap time.Duration
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		RateThreshold:    0.005,
		SmoothingWindow:  5,
		HysteresisFactor: 0.5,
		MinDuration:      300 * time.Millisecond,
		Refractory:       150 * time.Millisecond,
	}
}

// WithRateThreshold sets the onset rate-of-change threshold in V/s.
func WithRateThreshold(v float64) Option {
	return func(cfg *Config) { cfg.RateThreshold = v }
}

// WithSmoothingWindow sets the derivative smoothing window in ticks.
func WithSmoothingWindow(n int) Option {
	return func(cfg *Config) { cfg.SmoothingWindow = n }
}

// WithHysteresisFactor sets the offset threshold factor.
func WithHysteresisFactor(f float64) Option {
	return func(cfg *Config) { cfg.HysteresisFactor = f }
}

// WithOffsetHold sets the below-threshold ticks needed to confirm offset.
func WithOffsetHold(n int) Option {
	return func(cfg *Config) { cfg.OffsetHold = n }
}

// WithMinDuration sets the minimum reportable contraction duration.
func WithMinDuration(d time.Duration) Option {
	return func(cfg *Config) { cfg.MinDuration = d }
}

// WithRefractory sets the post-offset onset suppression period.
func WithRefractory(d time.Duration) Option {
	return func(cfg *Config) { cfg.Refractory = d }
}

// WithMergeGap sets the maximum silent gap coalesced into one event.
func WithMergeGap(d time.Duration) Option {
	return func(cfg *Config) { cfg.MergeGap = d }
}

// normalize fills derived defaults and validates ranges.
func (cfg *Config) normalize() error {
	if cfg.RateThreshold <= 0 {
		return ErrInvalidRateThreshold
	}

	if cfg.SmoothingWindow < 1 {
		return ErrInvalidSmoothing
	}

	if cfg.HysteresisFactor < 0.3 || cfg.HysteresisFactor > 0.7 {
		return ErrInvalidHysteresis
	}

	if cfg.MinDuration <= 0 {
		return ErrInvalidDuration
	}

	if cfg.Refractory < 0 {
		cfg.Refractory = 0
	}

	if cfg.OffsetHold <= 0 {
		cfg.OffsetHold = cfg.SmoothingWindow
	}

	if cfg.MergeGap <= 0 {
		cfg.MergeGap = 2 * cfg.Refractory
	}

	return nil
}
