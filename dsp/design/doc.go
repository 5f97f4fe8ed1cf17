// Package design computes biquad coefficients for the filter shapes used
// by the EMG pipeline: RBJ lowpass/highpass/bandpass/notch prototypes and
// Butterworth cascades built from them.
//
// All designers validate their parameters against the sample rate and
// return an error for out-of-range requests (cutoff at or above Nyquist,
// inverted band edges, non-positive values). Nothing is ever silently
// clamped: a filter that cannot be realized as asked for must not be
// built at all.
package design
