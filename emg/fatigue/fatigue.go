// Package fatigue derives time-to-fatigue indicators from accumulated
// contraction history. Muscular fatigue shows up as a downward trend in
// peak RMS across successive contractions of comparable effort and as a
// decline in median frequency over time (slowing fiber conduction
// velocity). Both analyses run on demand over immutable history; no
// running state is kept.
package fatigue

import (
	"math"
	"time"

	"github.com/cwbudde/algo-emg/emg/detect"
)

// Sample is one point of a feature time series (median frequency in Hz,
// peak RMS in Volts, ...).
type Sample struct {
	Time  time.Time
	Value float64
}

// Trend summarizes a least-squares fit over a series.
type Trend struct {
	Slope       float64 // units per second
	Correlation float64 // Pearson r, in [-1, 1]
	N           int
}

// Result is the outcome of one fatigue analysis.
type Result struct {
	Trend

	// Fatigued reports whether the configured criterion held over the
	// full series.
	Fatigued bool

	// Onset is the time of the earliest point at which the running trend
	// first satisfied the criterion; zero when Fatigued is false.
	Onset time.Time
}

// Config holds the analysis parameters.
type Config struct {
	// MinEvents is the minimum number of points for any trend verdict.
	MinEvents int

	// RMSCorrelation is the minimum |Pearson r| for an RMS trend to count
	// as statistically meaningful.
	RMSCorrelation float64

	// MFSlopeThreshold is the median-frequency decline in Hz/s at or
	// below which the frequency criterion fires. Default -0.89 Hz/s, the
	// decline reported for fatiguing contractions in the source study.
	MFSlopeThreshold float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard fatigue criteria.
func DefaultConfig() Config {
	return Config{
		MinEvents:        4,
		RMSCorrelation:   0.7,
		MFSlopeThreshold: -0.89,
	}
}

// WithMinEvents sets the minimum series length for a verdict.
func WithMinEvents(n int) Option {
	return func(cfg *Config) {
		if n > 1 {
			cfg.MinEvents = n
		}
	}
}

// WithRMSCorrelation sets the minimum |r| for the RMS criterion.
func WithRMSCorrelation(r float64) Option {
	return func(cfg *Config) {
		if r > 0 && r <= 1 {
			cfg.RMSCorrelation = r
		}
	}
}

// WithMFSlopeThreshold sets the median-frequency decline threshold (Hz/s,
// negative).
func WithMFSlopeThreshold(v float64) Option {
	return func(cfg *Config) {
		if v < 0 {
			cfg.MFSlopeThreshold = v
		}
	}
}

// Analyzer evaluates fatigue criteria over contraction history.
type Analyzer struct {
	cfg Config
}

// New creates an analyzer.
func New(opts ...Option) *Analyzer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Analyzer{cfg: cfg}
}

// PeakRMS evaluates the RMS-based criterion: a downward peak-RMS trend
// across successive contractions with at least the configured correlation
// strength.
func (a *Analyzer) PeakRMS(events []detect.Contraction) Result {
	series := make([]Sample, len(events))
	for i, ev := range events {
		series[i] = Sample{Time: ev.Onset, Value: ev.Peak}
	}

	return a.evaluate(series, func(t Trend) bool {
		return t.Slope < 0 && math.Abs(t.Correlation) >= a.cfg.RMSCorrelation
	})
}

// MedianFrequency evaluates the frequency-based criterion: a median
// frequency decline at or beyond the configured Hz/s threshold.
func (a *Analyzer) MedianFrequency(series []Sample) Result {
	return a.evaluate(series, func(t Trend) bool {
		return t.Slope <= a.cfg.MFSlopeThreshold
	})
}

// evaluate fits the full series and, if the criterion holds, walks the
// prefixes to locate the earliest point at which it first held.
func (a *Analyzer) evaluate(series []Sample, criterion func(Trend) bool) Result {
	res := Result{Trend: fit(series)}

	if res.N < a.cfg.MinEvents || !criterion(res.Trend) {
		return res
	}

	res.Fatigued = true
	res.Onset = series[len(series)-1].Time

	for k := a.cfg.MinEvents; k <= len(series); k++ {
		if criterion(fit(series[:k])) {
			res.Onset = series[k-1].Time

			break
		}
	}

	return res
}

// fit computes the least-squares slope (units/s) and Pearson correlation
// of a time series. Times are taken relative to the first sample.
func fit(series []Sample) Trend {
	n := len(series)
	if n < 2 {
		return Trend{N: n}
	}

	t0 := series[0].Time

	var sumX, sumY, sumXY, sumX2, sumY2 float64

	for _, s := range series {
		x := s.Time.Sub(t0).Seconds()
		y := s.Value

		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
		sumY2 += y * y
	}

	nf := float64(n)

	denomX := nf*sumX2 - sumX*sumX
	if denomX == 0 {
		return Trend{N: n}
	}

	slope := (nf*sumXY - sumX*sumY) / denomX

	var r float64

	denomY := nf*sumY2 - sumY*sumY
	if denomY > 0 {
		r = (nf*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	}

	return Trend{Slope: slope, Correlation: r, N: n}
}
