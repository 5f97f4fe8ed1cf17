package design

import (
	"math"

	"github.com/cwbudde/algo-emg/dsp/biquad"
)

const defaultQ = 1 / math.Sqrt2

// normalizedW0 converts a frequency in Hz to the normalized angular
// frequency 2*pi*f/fs, validating it against Nyquist.
func normalizedW0(freq, sampleRate float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	if freq <= 0 || freq >= sampleRate/2 {
		return 0, ErrInvalidCutoff
	}

	return 2 * math.Pi * freq / sampleRate, nil
}

func normalizedQ(q float64) (float64, error) {
	if q <= 0 {
		return 0, ErrInvalidQ
	}

	return q, nil
}

// normalizeBiquad divides all coefficients by a0 so the stored denominator
// leads with 1.
func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	inv := 1 / a0

	return biquad.Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}

// Lowpass designs an RBJ lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	q, err = normalizedQ(q)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2), nil
}

// Highpass designs an RBJ highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	q, err = normalizedQ(q)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b1 := -(1 + cw)
	b0 := (1 + cw) / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2), nil
}

// Bandpass designs a constant-skirt-gain RBJ bandpass biquad.
func Bandpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	q, err = normalizedQ(q)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := sw / 2
	b1 := 0.0
	b2 := -sw / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2), nil
}

// Notch designs an RBJ notch biquad centered at freq (Hz). The quality
// factor controls the reject bandwidth (bw = freq/q).
func Notch(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	q, err = normalizedQ(q)
	if err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := 1.0
	b1 := -2 * cw
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2), nil
}
