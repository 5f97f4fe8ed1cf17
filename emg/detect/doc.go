// Package detect implements per-channel contraction detection on the
// calibrated envelope RMS stream.
//
// Each channel runs the state machine
//
//	RESTING -> ONSET_PENDING -> ACTIVE -> OFFSET_PENDING -> RESTING
//
// driven by the smoothed rate of change of RMS and the calibrated
// threshold. Offset uses a hysteresis threshold below the onset threshold
// to avoid chatter at the boundary. Confirmed events shorter than the
// minimum duration are discarded as noise, events separated by less than
// the merge gap are coalesced into one, and a refractory period after
// every confirmed offset suppresses immediate re-triggering from signal
// settling artifacts.
package detect
