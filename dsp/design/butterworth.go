package design

import (
	"math"

	"github.com/cwbudde/algo-emg/dsp/biquad"
)

// butterworthQ returns the quality factor for the i-th second-order
// section of an order-N Butterworth filter.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return defaultQ
	}

	return 1 / (2 * s)
}

// butterworthFirstOrderLP designs a first-order lowpass section, used as the
// trailing section of odd-order cascades.
func butterworthFirstOrderLP(freq, sampleRate float64) (biquad.Coefficients, error) {
	if sampleRate <= 0 {
		return biquad.Coefficients{}, ErrInvalidSampleRate
	}

	if freq <= 0 || freq >= sampleRate/2 {
		return biquad.Coefficients{}, ErrInvalidCutoff
	}

	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad.Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}, nil
}

// butterworthFirstOrderHP designs a first-order highpass section.
func butterworthFirstOrderHP(freq, sampleRate float64) (biquad.Coefficients, error) {
	if sampleRate <= 0 {
		return biquad.Coefficients{}, ErrInvalidSampleRate
	}

	if freq <= 0 || freq >= sampleRate/2 {
		return biquad.Coefficients{}, ErrInvalidCutoff
	}

	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad.Coefficients{
		B0: norm,
		B1: -norm,
		A1: (k - 1) * norm,
	}, nil
}

// ButterworthLP designs a lowpass Butterworth cascade of the given order.
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthLP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if order <= 0 {
		return nil, ErrInvalidOrder
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)

	n2 := order / 2
	for i := n2 - 1; i >= 0; i-- {
		c, err := Lowpass(freq, butterworthQ(order, i), sampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, c)
	}

	if order%2 != 0 {
		c, err := butterworthFirstOrderLP(freq, sampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, c)
	}

	return sections, nil
}

// ButterworthHP designs a highpass Butterworth cascade of the given order.
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthHP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if order <= 0 {
		return nil, ErrInvalidOrder
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)

	n2 := order / 2
	for i := n2 - 1; i >= 0; i-- {
		c, err := Highpass(freq, butterworthQ(order, i), sampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, c)
	}

	if order%2 != 0 {
		c, err := butterworthFirstOrderHP(freq, sampleRate)
		if err != nil {
			return nil, err
		}

		sections = append(sections, c)
	}

	return sections, nil
}

// ButterworthBP designs a bandpass cascade as a highpass at the low edge
// followed by a lowpass at the high edge, each of the given order. The
// band edges must satisfy 0 < low < high < Nyquist.
func ButterworthBP(low, high float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if low >= high {
		return nil, ErrCutoffOrder
	}

	hp, err := ButterworthHP(low, order, sampleRate)
	if err != nil {
		return nil, err
	}

	lp, err := ButterworthLP(high, order, sampleRate)
	if err != nil {
		return nil, err
	}

	return append(hp, lp...), nil
}
