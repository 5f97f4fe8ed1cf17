package design

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-emg/dsp/biquad"
)

// magnitude evaluates the cascade's frequency response magnitude at freq.
func magnitude(sections []biquad.Coefficients, freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z := cmplx.Exp(complex(0, -w))

	h := complex(1, 0)
	for _, c := range sections {
		num := complex(c.B0, 0) + complex(c.B1, 0)*z + complex(c.B2, 0)*z*z
		den := complex(1, 0) + complex(c.A1, 0)*z + complex(c.A2, 0)*z*z
		h *= num / den
	}

	return cmplx.Abs(h)
}

func single(c biquad.Coefficients) []biquad.Coefficients {
	return []biquad.Coefficients{c}
}

func TestLowpassResponse(t *testing.T) {
	c, err := Lowpass(100, defaultQ, 2000)
	if err != nil {
		t.Fatalf("Lowpass: %v", err)
	}

	if dc := magnitude(single(c), 1, 2000); math.Abs(dc-1) > 1e-3 {
		t.Errorf("gain at 1 Hz = %v, want ~1", dc)
	}
	// RBJ lowpass magnitude at the cutoff equals Q.
	if fc := magnitude(single(c), 100, 2000); math.Abs(fc-defaultQ) > 1e-9 {
		t.Errorf("gain at cutoff = %v, want %v", fc, defaultQ)
	}
	if hf := magnitude(single(c), 900, 2000); hf > 0.05 {
		t.Errorf("gain at 900 Hz = %v, want near 0", hf)
	}
}

func TestHighpassResponse(t *testing.T) {
	c, err := Highpass(100, defaultQ, 2000)
	if err != nil {
		t.Fatalf("Highpass: %v", err)
	}

	if dc := magnitude(single(c), 1, 2000); dc > 1e-3 {
		t.Errorf("gain at 1 Hz = %v, want near 0", dc)
	}
	if fc := magnitude(single(c), 100, 2000); math.Abs(fc-defaultQ) > 1e-9 {
		t.Errorf("gain at cutoff = %v, want %v", fc, defaultQ)
	}
	if hf := magnitude(single(c), 900, 2000); math.Abs(hf-1) > 1e-2 {
		t.Errorf("gain at 900 Hz = %v, want ~1", hf)
	}
}

func TestBandpassResponse(t *testing.T) {
	c, err := Bandpass(150, 1, 2000)
	if err != nil {
		t.Fatalf("Bandpass: %v", err)
	}

	// Constant-skirt-gain variant: peak gain at the center equals Q.
	if fc := magnitude(single(c), 150, 2000); math.Abs(fc-1) > 1e-9 {
		t.Errorf("gain at center = %v, want 1", fc)
	}
	if lo := magnitude(single(c), 20, 2000); lo > 0.5 {
		t.Errorf("gain at 20 Hz = %v, want < 0.5", lo)
	}
	if hi := magnitude(single(c), 800, 2000); hi > 0.5 {
		t.Errorf("gain at 800 Hz = %v, want < 0.5", hi)
	}
}

func TestNotchResponse(t *testing.T) {
	c, err := Notch(60, 30, 2000)
	if err != nil {
		t.Fatalf("Notch: %v", err)
	}

	// The numerator has an exact zero on the unit circle at the notch.
	if fc := magnitude(single(c), 60, 2000); fc > 1e-9 {
		t.Errorf("gain at notch = %v, want 0", fc)
	}
	if lo := magnitude(single(c), 30, 2000); lo < 0.99 {
		t.Errorf("gain at 30 Hz = %v, want ~1", lo)
	}
	if hi := magnitude(single(c), 120, 2000); hi < 0.99 {
		t.Errorf("gain at 120 Hz = %v, want ~1", hi)
	}
}

func TestDesignValidation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"zero sample rate", errOf(Lowpass(100, defaultQ, 0)), ErrInvalidSampleRate},
		{"negative sample rate", errOf(Highpass(100, defaultQ, -48000)), ErrInvalidSampleRate},
		{"zero cutoff", errOf(Lowpass(0, defaultQ, 2000)), ErrInvalidCutoff},
		{"cutoff at nyquist", errOf(Lowpass(1000, defaultQ, 2000)), ErrInvalidCutoff},
		{"cutoff above nyquist", errOf(Notch(1200, 30, 2000)), ErrInvalidCutoff},
		{"zero q", errOf(Notch(60, 0, 2000)), ErrInvalidQ},
		{"negative q", errOf(Bandpass(150, -1, 2000)), ErrInvalidQ},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.want) {
				t.Fatalf("err = %v, want %v", tc.err, tc.want)
			}
		})
	}
}

func errOf(_ biquad.Coefficients, err error) error { return err }
