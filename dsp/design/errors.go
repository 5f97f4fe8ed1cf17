package design

import "errors"

var (
	// ErrInvalidSampleRate reports a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("design: sample rate must be positive")

	// ErrInvalidCutoff reports a cutoff frequency that is not strictly
	// between 0 and Nyquist.
	ErrInvalidCutoff = errors.New("design: cutoff must be in (0, sampleRate/2)")

	// ErrCutoffOrder reports band edges in the wrong order (low >= high).
	ErrCutoffOrder = errors.New("design: low cutoff must be below high cutoff")

	// ErrInvalidQ reports a non-positive quality factor.
	ErrInvalidQ = errors.New("design: quality factor must be positive")

	// ErrInvalidOrder reports a non-positive filter order.
	ErrInvalidOrder = errors.New("design: filter order must be positive")
)
