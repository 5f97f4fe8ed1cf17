// Package feature computes windowed EMG features from conditioned
// samples: time-domain amplitude features (RMS, MAV, iEMG) over a sliding
// trailing window, and on-demand magnitude/power spectra with the median
// frequency fatigue indicator.
//
// Windows are maintained with running sums so that recomputing a feature
// every chunk costs O(new samples), not O(window). Queries against a
// window that has not yet accumulated a full span return
// [ErrInsufficientData] instead of a value computed on partial data.
package feature
