package feature

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientData reports a feature query before the trailing
	// window has filled. Callers receive this instead of a value computed
	// on partial data.
	ErrInsufficientData = errors.New("feature: window not yet filled")

	// ErrInvalidWindow reports a non-positive window length.
	ErrInvalidWindow = errors.New("feature: window length must be positive")

	// ErrInvalidChannel reports a channel index outside the configured range.
	ErrInvalidChannel = errors.New("feature: channel index out of range")
)

// Windows maintains per-channel sliding windows over the envelope signal
// and computes time-domain amplitude features from running sums.
//
// Windows is not safe for concurrent use.
type Windows struct {
	channels      int
	windowSamples int

	squares [][]float64 // ring of x^2 per channel
	absVals [][]float64 // ring of |x| per channel

	sumSquares []float64
	sumAbs     []float64
	writeIdx   []int
	filled     []int
}

// NewWindows creates sliding windows of windowSamples samples for the
// given number of channels.
func NewWindows(channels, windowSamples int) (*Windows, error) {
	if windowSamples <= 0 {
		return nil, ErrInvalidWindow
	}

	if channels <= 0 {
		return nil, ErrInvalidChannel
	}

	w := &Windows{
		channels:      channels,
		windowSamples: windowSamples,
		squares:       make([][]float64, channels),
		absVals:       make([][]float64, channels),
		sumSquares:    make([]float64, channels),
		sumAbs:        make([]float64, channels),
		writeIdx:      make([]int, channels),
		filled:        make([]int, channels),
	}

	for i := range channels {
		w.squares[i] = make([]float64, windowSamples)
		w.absVals[i] = make([]float64, windowSamples)
	}

	return w, nil
}

// Len returns the configured window length in samples.
func (w *Windows) Len() int { return w.windowSamples }

// Push appends new envelope samples for one channel, evicting the oldest
// entries once the window is full.
func (w *Windows) Push(ch int, samples []float64) error {
	if ch < 0 || ch >= w.channels {
		return ErrInvalidChannel
	}

	sq := w.squares[ch]
	ab := w.absVals[ch]
	idx := w.writeIdx[ch]

	for _, x := range samples {
		w.sumSquares[ch] += x*x - sq[idx]
		w.sumAbs[ch] += math.Abs(x) - ab[idx]

		sq[idx] = x * x
		ab[idx] = math.Abs(x)

		idx++
		if idx == w.windowSamples {
			idx = 0
		}
	}

	w.writeIdx[ch] = idx

	if w.filled[ch] < w.windowSamples {
		w.filled[ch] = min(w.filled[ch]+len(samples), w.windowSamples)
	}

	return nil
}

// Ready reports whether the channel's window has accumulated a full span.
func (w *Windows) Ready(ch int) bool {
	return ch >= 0 && ch < w.channels && w.filled[ch] == w.windowSamples
}

// RMS returns sqrt(mean(x^2)) over the trailing window.
func (w *Windows) RMS(ch int) (float64, error) {
	if ch < 0 || ch >= w.channels {
		return 0, ErrInvalidChannel
	}

	if !w.Ready(ch) {
		return 0, ErrInsufficientData
	}

	// Running sums can drift slightly negative on long streams.
	s := w.sumSquares[ch]
	if s < 0 {
		s = 0
	}

	return math.Sqrt(s / float64(w.windowSamples)), nil
}

// MAV returns mean(|x|) over the trailing window.
func (w *Windows) MAV(ch int) (float64, error) {
	if ch < 0 || ch >= w.channels {
		return 0, ErrInvalidChannel
	}

	if !w.Ready(ch) {
		return 0, ErrInsufficientData
	}

	s := w.sumAbs[ch]
	if s < 0 {
		s = 0
	}

	return s / float64(w.windowSamples), nil
}

// IEMG returns the integrated EMG, sum(|x|), over the trailing window.
func (w *Windows) IEMG(ch int) (float64, error) {
	if ch < 0 || ch >= w.channels {
		return 0, ErrInvalidChannel
	}

	if !w.Ready(ch) {
		return 0, ErrInsufficientData
	}

	s := w.sumAbs[ch]
	if s < 0 {
		s = 0
	}

	return s, nil
}

// ResetChannel discards all accumulated samples for one channel. Used by
// the engine after a numeric-instability reset so stale values do not
// leak into post-recovery features.
func (w *Windows) ResetChannel(ch int) {
	if ch < 0 || ch >= w.channels {
		return
	}

	for i := range w.squares[ch] {
		w.squares[ch][i] = 0
		w.absVals[ch][i] = 0
	}

	w.sumSquares[ch] = 0
	w.sumAbs[ch] = 0
	w.writeIdx[ch] = 0
	w.filled[ch] = 0
}
