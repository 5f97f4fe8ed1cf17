package engine

import (
	"errors"
	"time"

	"github.com/cwbudde/algo-emg/emg"
	"github.com/cwbudde/algo-emg/emg/calib"
	"github.com/cwbudde/algo-emg/emg/detect"
	"github.com/cwbudde/algo-emg/emg/fatigue"
	"github.com/cwbudde/algo-emg/emg/filter"
)

var (
	// ErrInvalidWindow reports a non-positive feature window.
	ErrInvalidWindow = errors.New("engine: feature window must be positive")

	// ErrInvalidBuffer reports a non-positive raw buffer span.
	ErrInvalidBuffer = errors.New("engine: buffer span must be positive")

	// ErrNoChannels reports a configuration without channels.
	ErrNoChannels = errors.New("engine: at least one channel required")
)

// Config gathers the full engine configuration. Zero values are filled
// from DefaultConfig; invalid values fail construction.
type Config struct {
	SampleRate float64
	Channels   []emg.Channel

	// FeatureWindow is the trailing span behind every RMS/MAV value.
	FeatureWindow time.Duration

	// SpectrumSize is the FFT segment length in samples (power of two).
	SpectrumSize int

	// BufferSpan is how much recent raw signal each channel retains.
	BufferSpan time.Duration

	// QueueCapacity bounds the pending chunk queue between ticks; the
	// oldest chunk is dropped (and counted) when the producer outruns
	// the consumer.
	QueueCapacity int

	// EventBuffer is the capacity of the outgoing event channels.
	EventBuffer int

	// MedianFreqInterval is how often a median-frequency sample is
	// appended to the per-channel fatigue history.
	MedianFreqInterval time.Duration

	// SaturationLimit flags raw samples at or beyond +/- this amplitude
	// (Volts) as saturated. Zero disables the check.
	SaturationLimit float64

	Filter  filter.Config
	Detect  detect.Config
	Calib   calib.Config
	Fatigue fatigue.Config
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard engine configuration for a single
// channel at 2 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:         2000,
		Channels:           emg.Linear(1),
		FeatureWindow:      200 * time.Millisecond,
		SpectrumSize:       1024,
		BufferSpan:         5 * time.Second,
		QueueCapacity:      256,
		EventBuffer:        128,
		MedianFreqInterval: 500 * time.Millisecond,
		Filter:             filter.DefaultConfig(),
		Detect:             detect.DefaultConfig(),
		Calib:              calib.DefaultConfig(),
		Fatigue:            fatigue.DefaultConfig(),
	}
}

// WithSampleRate sets the sampling rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) { cfg.SampleRate = sampleRate }
}

// WithChannels configures n channels without grid positions.
func WithChannels(n int) Option {
	return func(cfg *Config) { cfg.Channels = emg.Linear(n) }
}

// WithGrid configures rows*cols channels laid out on an electrode grid.
func WithGrid(rows, cols int) Option {
	return func(cfg *Config) { cfg.Channels = emg.Grid(rows, cols) }
}

// WithBandpass sets the bandpass edges in Hz.
func WithBandpass(low, high float64) Option {
	return func(cfg *Config) {
		cfg.Filter.BandLowHz = low
		cfg.Filter.BandHighHz = high
	}
}

// WithNotch sets the powerline notch frequency in Hz.
func WithNotch(freq float64) Option {
	return func(cfg *Config) { cfg.Filter.NotchFreqHz = freq }
}

// WithEnvelopeCutoff sets the envelope lowpass cutoff in Hz.
func WithEnvelopeCutoff(freq float64) Option {
	return func(cfg *Config) { cfg.Filter.EnvelopeCutoffHz = freq }
}

// WithFeatureWindow sets the sliding feature window span.
func WithFeatureWindow(d time.Duration) Option {
	return func(cfg *Config) { cfg.FeatureWindow = d }
}

// WithSpectrumSize sets the FFT segment length in samples.
func WithSpectrumSize(n int) Option {
	return func(cfg *Config) { cfg.SpectrumSize = n }
}

// WithBufferSpan sets how much recent raw signal is retained per channel.
func WithBufferSpan(d time.Duration) Option {
	return func(cfg *Config) { cfg.BufferSpan = d }
}

// WithQueueCapacity bounds the pending chunk queue.
func WithQueueCapacity(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.QueueCapacity = n
		}
	}
}

// WithEventBuffer sets the outgoing event channel capacity.
func WithEventBuffer(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.EventBuffer = n
		}
	}
}

// WithRateThreshold sets the onset rate-of-change threshold in V/s.
func WithRateThreshold(v float64) Option {
	return func(cfg *Config) { cfg.Detect.RateThreshold = v }
}

// WithSmoothingWindow sets the derivative smoothing window in ticks.
func WithSmoothingWindow(n int) Option {
	return func(cfg *Config) { cfg.Detect.SmoothingWindow = n }
}

// WithHysteresisFactor sets the offset threshold factor (0.3 to 0.7).
func WithHysteresisFactor(f float64) Option {
	return func(cfg *Config) { cfg.Detect.HysteresisFactor = f }
}

// WithMinContractionDuration sets the minimum reportable contraction span.
func WithMinContractionDuration(d time.Duration) Option {
	return func(cfg *Config) { cfg.Detect.MinDuration = d }
}

// WithRefractoryDuration sets the post-offset onset suppression period.
func WithRefractoryDuration(d time.Duration) Option {
	return func(cfg *Config) { cfg.Detect.Refractory = d }
}

// WithMergeGap sets the maximum silent gap coalesced into one event.
func WithMergeGap(d time.Duration) Option {
	return func(cfg *Config) { cfg.Detect.MergeGap = d }
}

// WithCalibrationPhases sets the rest and effort phase durations.
func WithCalibrationPhases(rest, mvc time.Duration) Option {
	return func(cfg *Config) {
		cfg.Calib.RestDuration = rest
		cfg.Calib.MVCDuration = mvc
	}
}

// WithMedianFreqInterval sets the fatigue-history sampling interval.
func WithMedianFreqInterval(d time.Duration) Option {
	return func(cfg *Config) { cfg.MedianFreqInterval = d }
}

// WithSaturationLimit flags raw samples at or beyond +/- v Volts.
func WithSaturationLimit(v float64) Option {
	return func(cfg *Config) { cfg.SaturationLimit = v }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
