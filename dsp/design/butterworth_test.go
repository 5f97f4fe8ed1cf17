package design

import (
	"errors"
	"math"
	"testing"
)

func TestButterworthLP_SectionCounts(t *testing.T) {
	for order, want := range map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 4} {
		sections, err := ButterworthLP(100, order, 2000)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		if len(sections) != want {
			t.Errorf("order %d: %d sections, want %d", order, len(sections), want)
		}
	}
}

func TestButterworthLP_Response(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4, 5} {
		sections, err := ButterworthLP(100, order, 2000)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}

		if dc := magnitude(sections, 0.5, 2000); math.Abs(dc-1) > 1e-3 {
			t.Errorf("order %d: gain near DC = %v, want ~1", order, dc)
		}
		// Butterworth cascades are -3 dB at the cutoff regardless of order.
		if fc := magnitude(sections, 100, 2000); math.Abs(fc-1/math.Sqrt2) > 1e-6 {
			t.Errorf("order %d: gain at cutoff = %v, want %v", order, fc, 1/math.Sqrt2)
		}
		if hf := magnitude(sections, 400, 2000); hf > math.Pow(0.3, float64(order)) {
			t.Errorf("order %d: gain at 400 Hz = %v, not steep enough", order, hf)
		}
	}
}

func TestButterworthHP_Response(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4} {
		sections, err := ButterworthHP(100, order, 2000)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}

		if dc := magnitude(sections, 0.5, 2000); dc > 1e-2 {
			t.Errorf("order %d: gain near DC = %v, want ~0", order, dc)
		}
		if fc := magnitude(sections, 100, 2000); math.Abs(fc-1/math.Sqrt2) > 1e-6 {
			t.Errorf("order %d: gain at cutoff = %v, want %v", order, fc, 1/math.Sqrt2)
		}
		if hf := magnitude(sections, 800, 2000); math.Abs(hf-1) > 1e-2 {
			t.Errorf("order %d: gain at 800 Hz = %v, want ~1", order, hf)
		}
	}
}

func TestButterworthBP_Response(t *testing.T) {
	// The standard surface-EMG band at 2 kHz.
	sections, err := ButterworthBP(20, 450, 2, 2000)
	if err != nil {
		t.Fatalf("ButterworthBP: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}

	if mid := magnitude(sections, 150, 2000); math.Abs(mid-1) > 0.03 {
		t.Errorf("gain at 150 Hz = %v, want ~1", mid)
	}
	if lo := magnitude(sections, 2, 2000); lo > 0.05 {
		t.Errorf("gain at 2 Hz = %v, want near 0", lo)
	}
	if hi := magnitude(sections, 900, 2000); hi > 0.15 {
		t.Errorf("gain at 900 Hz = %v, want small", hi)
	}
}

func TestButterworthValidation(t *testing.T) {
	if _, err := ButterworthLP(100, 0, 2000); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("order 0: err = %v, want ErrInvalidOrder", err)
	}
	if _, err := ButterworthHP(100, -2, 2000); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("order -2: err = %v, want ErrInvalidOrder", err)
	}
	if _, err := ButterworthLP(1500, 2, 2000); !errors.Is(err, ErrInvalidCutoff) {
		t.Fatalf("cutoff above nyquist: err = %v, want ErrInvalidCutoff", err)
	}
	if _, err := ButterworthBP(450, 20, 2, 2000); !errors.Is(err, ErrCutoffOrder) {
		t.Fatalf("reversed edges: err = %v, want ErrCutoffOrder", err)
	}
	if _, err := ButterworthBP(20, 1200, 2, 2000); !errors.Is(err, ErrInvalidCutoff) {
		t.Fatalf("high edge above nyquist: err = %v, want ErrInvalidCutoff", err)
	}
}
