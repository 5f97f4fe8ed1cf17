// Package biquad provides second-order IIR filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Multiple sections are
// cascaded via [Chain] for higher-order filters (Butterworth bandpass,
// envelope lowpass, etc.). Coefficient design lives in dsp/design.
//
// Sections carry their delay-line state between calls, so an unbounded
// stream processed in arbitrary block sizes produces the same output as
// one continuous pass.
package biquad
