// Package emg defines the shared value types of the EMG analysis engine:
// channel identities, raw sample chunks, and grid layouts for high-density
// electrode arrays.
//
// The processing stages live in the subpackages: emg/filter (stateful
// filter chain), emg/feature (windowed features and spectra), emg/calib
// (two-phase calibration), emg/detect (contraction detection), emg/fatigue
// (trend analysis) and emg/engine (the streaming orchestrator).
package emg
