package engine

import "testing"

func seq(start, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(start + i)
	}

	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func TestRing_TailBeforeFull(t *testing.T) {
	r := newRing(8)
	r.push(seq(0, 3))

	if got := r.tail(8); !equal(got, seq(0, 3)) {
		t.Fatalf("tail = %v, want %v", got, seq(0, 3))
	}
	if got := r.tail(2); !equal(got, []float64{1, 2}) {
		t.Fatalf("tail(2) = %v, want [1 2]", got)
	}
	if got := r.tail(0); got != nil {
		t.Fatalf("tail(0) = %v, want nil", got)
	}
}

func TestRing_Wraparound(t *testing.T) {
	r := newRing(8)
	r.push(seq(0, 6))
	r.push(seq(6, 5)) // write index wraps past the end

	// Eleven samples through a capacity-8 ring keep the last eight.
	if got := r.tail(8); !equal(got, seq(3, 8)) {
		t.Fatalf("tail = %v, want %v", got, seq(3, 8))
	}
	if got := r.tail(3); !equal(got, seq(8, 3)) {
		t.Fatalf("tail(3) = %v, want %v", got, seq(8, 3))
	}
}

func TestRing_OversizedBatchKeepsTrailingSpan(t *testing.T) {
	r := newRing(4)
	r.push(seq(0, 2))
	r.push(seq(100, 10))

	if got := r.tail(4); !equal(got, seq(106, 4)) {
		t.Fatalf("tail = %v, want %v", got, seq(106, 4))
	}
}

func TestRing_Reset(t *testing.T) {
	r := newRing(4)
	r.push(seq(0, 4))
	r.reset()

	if got := r.tail(4); got != nil {
		t.Fatalf("tail after reset = %v, want nil", got)
	}

	r.push(seq(10, 2))
	if got := r.tail(4); !equal(got, seq(10, 2)) {
		t.Fatalf("tail after refill = %v, want %v", got, seq(10, 2))
	}
}

func TestRing_EmptyTail(t *testing.T) {
	r := newRing(4)
	if got := r.tail(4); got != nil {
		t.Fatalf("tail of empty ring = %v, want nil", got)
	}
}
