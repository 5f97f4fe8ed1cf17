package filter

import (
	"errors"
	"math"
	"time"

	"github.com/cwbudde/algo-emg/dsp/biquad"
	"github.com/cwbudde/algo-emg/dsp/design"
	"github.com/cwbudde/algo-emg/emg"
)

var (
	// ErrChannelCount reports a chunk whose channel count does not match
	// the chain configuration.
	ErrChannelCount = errors.New("filter: chunk channel count mismatch")

	// ErrInvalidChannels reports a non-positive channel count at construction.
	ErrInvalidChannels = errors.New("filter: channel count must be positive")
)

// Output carries the two conditioned views of one processed chunk.
//
// Filtered is the bandpassed and notch-filtered signal, suitable for
// spectral analysis and display. Envelope is the rectified and lowpass-
// smoothed amplitude envelope, the input to feature extraction and
// contraction detection. ResetChannels lists channels whose filter state
// went non-finite during this call and was reset; their output slices for
// this chunk are zeroed.
type Output struct {
	Timestamp     time.Time
	SampleRate    float64
	Filtered      [][]float64
	Envelope      [][]float64
	ResetChannels []int
}

// Chain applies the fixed EMG stage order bandpass -> notch -> rectify ->
// envelope to every channel independently, carrying IIR state between
// chunks.
//
// Chain is not safe for concurrent use; the engine serializes processing
// ticks.
type Chain struct {
	cfg Config

	band  []*biquad.Chain
	notch []*biquad.Section
	env   []*biquad.Chain
}

// New builds a filter chain from the given options. It fails with a
// design error when any cutoff is invalid relative to the sampling rate
// (at or above Nyquist, low >= high); requests are never clamped.
func New(opts ...Option) (*Chain, error) {
	cfg := ApplyOptions(opts...)
	return NewFromConfig(cfg)
}

// NewFromConfig builds a filter chain from an explicit Config.
func NewFromConfig(cfg Config) (*Chain, error) {
	if cfg.Channels <= 0 {
		return nil, ErrInvalidChannels
	}

	bandCoeffs, err := design.ButterworthBP(cfg.BandLowHz, cfg.BandHighHz, cfg.BandOrder, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	notchCoeffs, err := design.Notch(cfg.NotchFreqHz, cfg.NotchQ, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	envCoeffs, err := design.ButterworthLP(cfg.EnvelopeCutoffHz, cfg.EnvelopeOrder, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		cfg:   cfg,
		band:  make([]*biquad.Chain, cfg.Channels),
		notch: make([]*biquad.Section, cfg.Channels),
		env:   make([]*biquad.Chain, cfg.Channels),
	}

	for i := range cfg.Channels {
		c.band[i] = biquad.NewChain(bandCoeffs)
		c.notch[i] = biquad.NewSection(notchCoeffs)
		c.env[i] = biquad.NewChain(envCoeffs)
	}

	return c, nil
}

// Channels returns the configured channel count.
func (c *Chain) Channels() int { return c.cfg.Channels }

// SampleRate returns the configured sampling rate.
func (c *Chain) SampleRate() float64 { return c.cfg.SampleRate }

// Process conditions one chunk. The input chunk is not modified; fresh
// output slices are allocated per call so downstream consumers may retain
// them.
//
// A channel whose output turns NaN or Inf is reset and zeroed for this
// chunk and reported in Output.ResetChannels; the remaining channels are
// unaffected.
func (c *Chain) Process(chunk emg.Chunk) (Output, error) {
	if chunk.Channels() != c.cfg.Channels {
		return Output{}, ErrChannelCount
	}

	n := chunk.Len()
	out := Output{
		Timestamp:  chunk.Timestamp,
		SampleRate: chunk.SampleRate,
		Filtered:   make([][]float64, c.cfg.Channels),
		Envelope:   make([][]float64, c.cfg.Channels),
	}

	for ch := range c.cfg.Channels {
		filtered := make([]float64, n)
		copy(filtered, chunk.Samples[ch])

		c.band[ch].ProcessBlock(filtered)
		c.notch[ch].ProcessBlock(filtered)

		envelope := make([]float64, n)
		for i, x := range filtered {
			envelope[i] = math.Abs(x)
		}

		c.env[ch].ProcessBlock(envelope)

		if !finite(filtered) || !finite(envelope) {
			c.ResetChannel(ch)
			zero(filtered)
			zero(envelope)

			out.ResetChannels = append(out.ResetChannels, ch)
		}

		out.Filtered[ch] = filtered
		out.Envelope[ch] = envelope
	}

	return out, nil
}

// ResetChannel clears the IIR state of a single channel. The next chunk
// re-initializes the channel from clean delay lines.
func (c *Chain) ResetChannel(ch int) {
	if ch < 0 || ch >= c.cfg.Channels {
		return
	}

	c.band[ch].Reset()
	c.notch[ch].Reset()
	c.env[ch].Reset()
}

// Reset clears the IIR state of all channels.
func (c *Chain) Reset() {
	for ch := range c.cfg.Channels {
		c.ResetChannel(ch)
	}
}

func finite(buf []float64) bool {
	for _, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
