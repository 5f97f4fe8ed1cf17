// Package calib implements the two-phase EMG calibration protocol.
//
// A calibration run collects per-channel envelope RMS values during a
// rest phase (electrodes attached, muscle relaxed) and a maximum-effort
// phase (maximum voluntary contraction, MVC). From the rest phase it
// derives a baseline and noise spread per channel; from the effort phase
// the MVC reference. The detection threshold is baseline + k*std, k = 3
// by default.
//
// The state machine is IDLE -> REST -> MVC -> COMPLETE and is not
// re-entrant: starting a run while one is in progress is rejected.
package calib
