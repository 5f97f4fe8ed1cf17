package window

import (
	"math"
	"testing"
)

func TestGenerateRectangular(t *testing.T) {
	w := Generate(TypeRectangular, 8)
	for i, v := range w {
		if v != 1 {
			t.Fatalf("w[%d] = %v, want 1", i, v)
		}
	}
}

func TestGenerateHann(t *testing.T) {
	w := Generate(TypeHann, 9)

	if w[0] != 0 || w[8] != 0 {
		t.Fatalf("endpoints = %v, %v, want 0", w[0], w[8])
	}
	if math.Abs(w[4]-1) > 1e-15 {
		t.Fatalf("midpoint = %v, want 1", w[4])
	}
	// Symmetric window.
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-15 {
			t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[len(w)-1-i])
		}
	}
}

func TestGenerateHamming(t *testing.T) {
	w := Generate(TypeHamming, 9)

	if math.Abs(w[0]-0.08) > 1e-12 {
		t.Fatalf("endpoint = %v, want 0.08", w[0])
	}
	if math.Abs(w[4]-1) > 1e-15 {
		t.Fatalf("midpoint = %v, want 1", w[4])
	}
}

func TestGenerateDegenerate(t *testing.T) {
	if w := Generate(TypeHann, 0); len(w) != 0 {
		t.Fatalf("length-0 window has %d elements", len(w))
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 1 {
		t.Fatalf("length-1 window = %v, want [1]", w)
	}
	if w := Generate(TypeHann, -3); w != nil {
		t.Fatalf("negative length window = %v, want nil", w)
	}
}

func TestApply(t *testing.T) {
	buf := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2}
	Apply(TypeHann, buf)

	want := Generate(TypeHann, 9)
	for i := range buf {
		if math.Abs(buf[i]-2*want[i]) > 1e-15 {
			t.Fatalf("buf[%d] = %v, want %v", i, buf[i], 2*want[i])
		}
	}
}
