package emg

import "time"

// Channel identifies one electrode. Row and Col give the position in a
// high-density grid layout; both are -1 for channels outside a grid.
// Channels are immutable once configured.
type Channel struct {
	Index int
	Row   int
	Col   int
}

// Grid returns channel identities laid out row-major on a rows x cols
// electrode array, indexed 0..rows*cols-1.
func Grid(rows, cols int) []Channel {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	out := make([]Channel, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			out = append(out, Channel{Index: r*cols + c, Row: r, Col: c})
		}
	}

	return out
}

// Linear returns n channel identities without grid positions.
func Linear(n int) []Channel {
	if n <= 0 {
		return nil
	}

	out := make([]Channel, n)
	for i := range out {
		out[i] = Channel{Index: i, Row: -1, Col: -1}
	}

	return out
}

// Chunk is a batch of newly arrived raw samples: one slice per channel,
// all the same length, in Volts, plus the acquisition timestamp of the
// first sample and the nominal sampling rate.
//
// A chunk is produced by the ingestion boundary and consumed exactly once
// by the filter chain.
type Chunk struct {
	Timestamp  time.Time
	SampleRate float64
	Samples    [][]float64
}

// Channels returns the number of channels in the chunk.
func (c Chunk) Channels() int {
	return len(c.Samples)
}

// Len returns the number of samples per channel.
func (c Chunk) Len() int {
	if len(c.Samples) == 0 {
		return 0
	}

	return len(c.Samples[0])
}

// Duration returns the time span the chunk covers at its sampling rate.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(c.Len()) / c.SampleRate * float64(time.Second))
}

// End returns the timestamp just past the last sample of the chunk.
func (c Chunk) End() time.Time {
	return c.Timestamp.Add(c.Duration())
}
