// Package window provides tapering windows for spectral analysis of EMG
// segments. Only the shapes the feature extractor actually uses are kept.
package window

import "math"

// Type identifies a window shape.
type Type int

const (
	// TypeRectangular applies no tapering.
	TypeRectangular Type = iota
	// TypeHann is the raised-cosine window used by default for FFT segments.
	TypeHann
	// TypeHamming is a Hann variant with non-zero endpoints.
	TypeHamming
)

// Generate returns the window coefficients for the given type and length.
// A length below 2 yields an all-ones window.
func Generate(t Type, length int) []float64 {
	if length < 0 {
		return nil
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = 1
	}

	if length < 2 {
		return out
	}

	n := float64(length - 1)

	switch t {
	case TypeHann:
		for i := range out {
			out[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/n))
		}
	case TypeHamming:
		for i := range out {
			out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/n)
		}
	case TypeRectangular:
	}

	return out
}

// Apply multiplies buf in-place by the window of the given type.
func Apply(t Type, buf []float64) {
	w := Generate(t, len(buf))
	for i := range buf {
		buf[i] *= w[i]
	}
}
