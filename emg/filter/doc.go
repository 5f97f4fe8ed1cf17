// Package filter implements the per-channel EMG conditioning chain:
// Butterworth bandpass, powerline notch, full-wave rectification, and a
// lowpass envelope follower, applied in that fixed order.
//
// The chain is stateful: each channel carries the delay lines of its IIR
// stages between calls, so a stream processed chunk by chunk produces the
// same output as a single continuous pass. Coefficients are designed once
// at construction and never change.
package filter
