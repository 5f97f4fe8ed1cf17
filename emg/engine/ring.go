package engine

// ring is a fixed-capacity circular store of recent raw samples for one
// channel. Capacity is fixed at construction and never resized.
type ring struct {
	data   []float64
	write  int
	filled int
}

func newRing(capacity int) *ring {
	return &ring{data: make([]float64, capacity)}
}

// push appends samples, overwriting the oldest once full. Batches larger
// than the capacity keep only their trailing span.
func (r *ring) push(samples []float64) {
	n := len(r.data)
	if len(samples) >= n {
		copy(r.data, samples[len(samples)-n:])
		r.write = 0
		r.filled = n

		return
	}

	head := copy(r.data[r.write:], samples)
	copy(r.data, samples[head:])

	r.write = (r.write + len(samples)) % n

	if r.filled < n {
		r.filled = min(r.filled+len(samples), n)
	}
}

// tail returns up to n of the most recent samples, oldest first.
func (r *ring) tail(n int) []float64 {
	if n <= 0 || r.filled == 0 {
		return nil
	}

	if n > r.filled {
		n = r.filled
	}

	out := make([]float64, n)

	start := r.write - n
	if start < 0 {
		start += len(r.data)
	}

	head := copy(out, r.data[start:min(start+n, len(r.data))])
	copy(out[head:], r.data[:n-head])

	return out
}

// reset discards all stored samples.
func (r *ring) reset() {
	r.write = 0
	r.filled = 0
}
