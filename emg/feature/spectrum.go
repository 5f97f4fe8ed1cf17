package feature

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-emg/dsp/window"
)

// ErrInvalidSegment reports a spectral segment length that is not a
// positive power of two.
var ErrInvalidSegment = errors.New("feature: segment length must be a power of two")

// Spectrum maintains per-channel trailing segments of the notch-filtered
// signal and computes one-sided magnitude/power spectra on demand.
//
// Spectral analysis runs on the pre-rectification signal: rectification
// and envelope smoothing destroy the frequency content the median
// frequency indicator depends on.
type Spectrum struct {
	channels   int
	size       int
	sampleRate float64

	plan *algofft.Plan[complex128]
	win  []float64

	rings  [][]float64
	write  []int
	filled []int
}

// NewSpectrum creates spectral state for the given number of channels.
// size is the FFT segment length in samples and must be a power of two.
func NewSpectrum(channels, size int, sampleRate float64) (*Spectrum, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, ErrInvalidSegment
	}

	if channels <= 0 {
		return nil, ErrInvalidChannel
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("feature: creating FFT plan: %w", err)
	}

	s := &Spectrum{
		channels:   channels,
		size:       size,
		sampleRate: sampleRate,
		plan:       plan,
		win:        window.Generate(window.TypeHann, size),
		rings:      make([][]float64, channels),
		write:      make([]int, channels),
		filled:     make([]int, channels),
	}

	for i := range channels {
		s.rings[i] = make([]float64, size)
	}

	return s, nil
}

// Size returns the FFT segment length in samples.
func (s *Spectrum) Size() int { return s.size }

// BinWidth returns the frequency resolution in Hz per bin.
func (s *Spectrum) BinWidth() float64 { return s.sampleRate / float64(s.size) }

// Push appends notch-filtered samples for one channel.
func (s *Spectrum) Push(ch int, samples []float64) error {
	if ch < 0 || ch >= s.channels {
		return ErrInvalidChannel
	}

	ring := s.rings[ch]
	idx := s.write[ch]

	for _, x := range samples {
		ring[idx] = x

		idx++
		if idx == s.size {
			idx = 0
		}
	}

	s.write[ch] = idx

	if s.filled[ch] < s.size {
		s.filled[ch] = min(s.filled[ch]+len(samples), s.size)
	}

	return nil
}

// ResetChannel discards the accumulated segment for one channel.
func (s *Spectrum) ResetChannel(ch int) {
	if ch < 0 || ch >= s.channels {
		return
	}

	for i := range s.rings[ch] {
		s.rings[ch][i] = 0
	}

	s.write[ch] = 0
	s.filled[ch] = 0
}

// transform runs a Hann-windowed forward FFT over the trailing segment
// and returns the full complex spectrum.
func (s *Spectrum) transform(ch int) ([]complex128, error) {
	if ch < 0 || ch >= s.channels {
		return nil, ErrInvalidChannel
	}

	if s.filled[ch] < s.size {
		return nil, ErrInsufficientData
	}

	in := make([]complex128, s.size)
	ring := s.rings[ch]
	start := s.write[ch] // oldest sample

	for i := range s.size {
		v := ring[(start+i)%s.size]
		in[i] = complex(v*s.win[i], 0)
	}

	out := make([]complex128, s.size)
	if err := s.plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("feature: forward FFT: %w", err)
	}

	return out, nil
}

// Magnitude returns the one-sided magnitude spectrum |X[k]| for bins
// 0..size/2 of the channel's trailing segment.
func (s *Spectrum) Magnitude(ch int) ([]float64, error) {
	spec, err := s.transform(ch)
	if err != nil {
		return nil, err
	}

	return onesided(spec, false), nil
}

// Power returns the one-sided power spectrum |X[k]|^2 for bins 0..size/2.
func (s *Spectrum) Power(ch int) ([]float64, error) {
	spec, err := s.transform(ch)
	if err != nil {
		return nil, err
	}

	return onesided(spec, true), nil
}

// MedianFrequency returns the frequency that splits the channel's
// cumulative spectral power in half.
func (s *Spectrum) MedianFrequency(ch int) (float64, error) {
	power, err := s.Power(ch)
	if err != nil {
		return 0, err
	}

	return MedianFrequency(power, s.sampleRate), nil
}

// onesided unpacks the non-negative-frequency bins of a full complex
// spectrum into magnitudes (or squared magnitudes).
func onesided(spec []complex128, squared bool) []float64 {
	n := len(spec)/2 + 1

	re := make([]float64, n)
	im := make([]float64, n)

	for i := range n {
		re[i] = real(spec[i])
		im[i] = imag(spec[i])
	}

	out := make([]float64, n)
	if squared {
		vecmath.Power(out, re, im)
	} else {
		vecmath.Magnitude(out, re, im)
	}

	return out
}

// MedianFrequency returns the frequency splitting the cumulative power of
// a one-sided power spectrum in half, linearly interpolated between bins.
// The spectrum covers bins 0..N/2 of an N-point FFT at the given sample
// rate. An all-zero spectrum yields 0.
func MedianFrequency(power []float64, sampleRate float64) float64 {
	if len(power) < 2 || sampleRate <= 0 {
		return 0
	}

	var total float64
	for _, p := range power {
		total += p
	}

	if total <= 0 {
		return 0
	}

	fftSize := 2 * (len(power) - 1)
	binHz := sampleRate / float64(fftSize)
	half := total / 2

	var cum float64
	for i, p := range power {
		next := cum + p
		if next >= half {
			if i == 0 || p <= 0 {
				return float64(i) * binHz
			}

			// Interpolate between the cumulative values at bins i-1 and i.
			frac := (half - cum) / p

			return (float64(i-1) + frac) * binHz
		}

		cum = next
	}

	return float64(len(power)-1) * binHz
}
