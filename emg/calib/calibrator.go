package calib

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrCalibrationRunning reports a start request while a run is already
	// in progress.
	ErrCalibrationRunning = errors.New("calib: calibration already in progress")

	// ErrInsufficientSamples reports a phase that elapsed with too few
	// collected samples to produce statistics.
	ErrInsufficientSamples = errors.New("calib: too few samples collected in phase")

	// ErrInvalidDuration reports a non-positive phase duration.
	ErrInvalidDuration = errors.New("calib: phase duration must be positive")

	// ErrInvalidChannels reports a non-positive channel count.
	ErrInvalidChannels = errors.New("calib: channel count must be positive")

	// ErrChannelCount reports an RMS vector whose length does not match
	// the configured channel count.
	ErrChannelCount = errors.New("calib: rms vector length mismatch")
)

// State identifies the calibration phase.
type State int

const (
	// StateIdle means no calibration has run or the last run was aborted.
	StateIdle State = iota
	// StateRest collects resting baseline data.
	StateRest
	// StateMVC collects maximum-effort data.
	StateMVC
	// StateComplete holds a finished result.
	StateComplete
)

// String returns the phase name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRest:
		return "rest"
	case StateMVC:
		return "mvc"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ChannelResult holds the calibrated references for one channel.
type ChannelResult struct {
	Baseline  float64 // mean rest RMS
	Std       float64 // rest RMS standard deviation
	Threshold float64 // Baseline + sigma*Std
	MVC       float64 // maximum RMS observed during the effort phase
}

// Result is the immutable outcome of one calibration run.
type Result struct {
	CompletedAt time.Time
	Channels    []ChannelResult
}

// Config holds calibration parameters.
type Config struct {
	RestDuration time.Duration
	MVCDuration  time.Duration
	MinSamples   int     // minimum RMS samples per phase
	Sigma        float64 // threshold multiplier over the rest std
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard protocol: 3 s per phase, threshold
// at baseline + 3 std.
func DefaultConfig() Config {
	return Config{
		RestDuration: 3 * time.Second,
		MVCDuration:  3 * time.Second,
		MinSamples:   4,
		Sigma:        3,
	}
}

// WithPhaseDurations sets the rest and effort phase durations.
func WithPhaseDurations(rest, mvc time.Duration) Option {
	return func(cfg *Config) {
		cfg.RestDuration = rest
		cfg.MVCDuration = mvc
	}
}

// WithMinSamples sets the minimum RMS sample count per phase.
func WithMinSamples(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinSamples = n
		}
	}
}

// WithSigma sets the threshold multiplier over the rest standard deviation.
func WithSigma(sigma float64) Option {
	return func(cfg *Config) {
		if sigma > 0 {
			cfg.Sigma = sigma
		}
	}
}

// Calibrator runs the two-phase protocol over per-tick RMS vectors.
// It is not safe for concurrent use; the engine serializes ticks.
type Calibrator struct {
	cfg      Config
	channels int
	state    State

	phaseStart time.Time

	// Welford accumulators over the rest phase.
	restCount int
	restMean  []float64
	restM2    []float64

	mvcCount int
	mvcMax   []float64

	result *Result
}

// New creates a calibrator for the given channel count.
func New(channels int, opts ...Option) (*Calibrator, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.RestDuration <= 0 || cfg.MVCDuration <= 0 {
		return nil, ErrInvalidDuration
	}

	return &Calibrator{
		cfg:      cfg,
		channels: channels,
		restMean: make([]float64, channels),
		restM2:   make([]float64, channels),
		mvcMax:   make([]float64, channels),
	}, nil
}

// State returns the current phase.
func (c *Calibrator) State() State { return c.state }

// Running reports whether a calibration run is collecting data.
func (c *Calibrator) Running() bool {
	return c.state == StateRest || c.state == StateMVC
}

// Start begins a new run with the rest phase. It fails with
// ErrCalibrationRunning while a run is in progress; a completed or idle
// calibrator restarts cleanly, discarding any previous result.
func (c *Calibrator) Start(now time.Time) error {
	if c.Running() {
		return ErrCalibrationRunning
	}

	c.reset()
	c.state = StateRest
	c.phaseStart = now

	return nil
}

// Abort cancels an in-progress run and returns to idle. A completed
// result is kept.
func (c *Calibrator) Abort() {
	if c.Running() {
		c.state = StateIdle
	}
}

// Push feeds one per-channel RMS vector stamped at now. When the effort
// phase completes it returns the finished Result; otherwise the first
// return is nil. A phase that elapses with fewer than the configured
// minimum samples aborts the run with ErrInsufficientSamples.
func (c *Calibrator) Push(now time.Time, rms []float64) (*Result, error) {
	if len(rms) != c.channels {
		return nil, ErrChannelCount
	}

	switch c.state {
	case StateRest:
		if now.Sub(c.phaseStart) >= c.cfg.RestDuration {
			if c.restCount < c.cfg.MinSamples {
				c.state = StateIdle
				return nil, ErrInsufficientSamples
			}

			c.state = StateMVC
			c.phaseStart = now
			// The current vector counts toward the effort phase.
			c.pushMVC(rms)

			return nil, nil
		}

		c.pushRest(rms)

		return nil, nil

	case StateMVC:
		if now.Sub(c.phaseStart) >= c.cfg.MVCDuration {
			if c.mvcCount < c.cfg.MinSamples {
				c.state = StateIdle
				return nil, ErrInsufficientSamples
			}

			res := c.finalize(now)
			c.result = res
			c.state = StateComplete

			return res, nil
		}

		c.pushMVC(rms)

		return nil, nil

	default:
		// Idle or complete: nothing to collect.
		return nil, nil
	}
}

// Result returns the last completed calibration, if any.
func (c *Calibrator) Result() (*Result, bool) {
	return c.result, c.result != nil
}

func (c *Calibrator) pushRest(rms []float64) {
	c.restCount++
	n := float64(c.restCount)

	for ch, x := range rms {
		delta := x - c.restMean[ch]
		c.restMean[ch] += delta / n
		c.restM2[ch] += delta * (x - c.restMean[ch])
	}
}

func (c *Calibrator) pushMVC(rms []float64) {
	c.mvcCount++

	for ch, x := range rms {
		if x > c.mvcMax[ch] {
			c.mvcMax[ch] = x
		}
	}
}

func (c *Calibrator) finalize(now time.Time) *Result {
	res := &Result{
		CompletedAt: now,
		Channels:    make([]ChannelResult, c.channels),
	}

	n := float64(c.restCount)
	for ch := range c.channels {
		std := math.Sqrt(c.restM2[ch] / n)

		res.Channels[ch] = ChannelResult{
			Baseline:  c.restMean[ch],
			Std:       std,
			Threshold: c.restMean[ch] + c.cfg.Sigma*std,
			MVC:       c.mvcMax[ch],
		}
	}

	return res
}

func (c *Calibrator) reset() {
	c.restCount = 0
	c.mvcCount = 0
	c.result = nil

	for ch := range c.channels {
		c.restMean[ch] = 0
		c.restM2[ch] = 0
		c.mvcMax[ch] = 0
	}
}
