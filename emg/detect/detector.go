package detect

import (
	"time"
)

// Contraction is one detected muscle contraction. Events are immutable
// once finalized, except that the merge rule may extend the most recent
// event of a channel; the extended event is re-emitted with Merged set.
type Contraction struct {
	Channel int
	Onset   time.Time
	Offset  time.Time
	Peak    float64 // peak envelope RMS in Volts
	Merged  bool
}

// Duration returns offset minus onset.
func (c Contraction) Duration() time.Duration {
	return c.Offset.Sub(c.Onset)
}

// state is the per-channel detection phase.
type state int

const (
	stateResting state = iota
	stateOnsetPending
	stateActive
	stateOffsetPending
)

// channelState carries everything one channel needs between ticks.
type channelState struct {
	state state

	threshold  float64
	calibrated bool

	// Previous sample for the derivative.
	prevTime  time.Time
	prevRMS   float64
	havePrev  bool

	// Moving average over the last SmoothingWindow rate samples.
	rates    []float64
	rateSum  float64
	rateIdx  int
	rateLen  int

	onsetCandidate  time.Time
	offsetCandidate time.Time
	belowTicks      int
	peak            float64

	lastOffset    time.Time
	hasLastOffset bool

	events []Contraction
}

// Detector runs the onset/offset state machine for every channel.
// It is not safe for concurrent use; the engine serializes ticks.
type Detector struct {
	cfg      Config
	channels []channelState
}

// New creates a detector for the given channel count.
func New(channels int, opts ...Option) (*Detector, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:      cfg,
		channels: make([]channelState, channels),
	}

	for i := range d.channels {
		d.channels[i].rates = make([]float64, cfg.SmoothingWindow)
	}

	return d, nil
}

// Config returns the normalized configuration in effect.
func (d *Detector) Config() Config { return d.cfg }

// SetThresholds installs calibrated per-channel thresholds. Channels
// without a threshold never leave RESTING.
func (d *Detector) SetThresholds(thresholds []float64) error {
	if len(thresholds) != len(d.channels) {
		return ErrInvalidChannels
	}

	for i, th := range thresholds {
		d.channels[i].threshold = th
		d.channels[i].calibrated = true
	}

	return nil
}

// Calibrated reports whether the channel has a detection threshold.
func (d *Detector) Calibrated(ch int) bool {
	return ch >= 0 && ch < len(d.channels) && d.channels[ch].calibrated
}

// Active reports whether the channel is currently inside a contraction
// (confirmed onset without confirmed offset).
func (d *Detector) Active(ch int) bool {
	if ch < 0 || ch >= len(d.channels) {
		return false
	}

	s := d.channels[ch].state

	return s == stateActive || s == stateOffsetPending
}

// Events returns a copy of the channel's ordered event log.
func (d *Detector) Events(ch int) []Contraction {
	if ch < 0 || ch >= len(d.channels) {
		return nil
	}

	out := make([]Contraction, len(d.channels[ch].events))
	copy(out, d.channels[ch].events)

	return out
}

// ResetChannel clears the channel's transient detection state (derivative
// history and any pending onset/offset) without touching its threshold or
// event log. Used after a numeric-instability recovery.
func (d *Detector) ResetChannel(ch int) {
	if ch < 0 || ch >= len(d.channels) {
		return
	}

	c := &d.channels[ch]
	c.state = stateResting
	c.havePrev = false
	c.rateSum = 0
	c.rateIdx = 0
	c.rateLen = 0

	for i := range c.rates {
		c.rates[i] = 0
	}
}

// Push feeds one envelope RMS sample for a channel at the given time and
// returns a finalized Contraction when one closes, or nil. The returned
// event has Merged set when it extends the channel's previous event
// rather than opening a new log entry.
func (d *Detector) Push(ch int, now time.Time, rms float64) (*Contraction, error) {
	if ch < 0 || ch >= len(d.channels) {
		return nil, ErrInvalidChannel
	}

	c := &d.channels[ch]
	if !c.calibrated {
		return nil, ErrNotCalibrated
	}

	if !c.havePrev {
		c.prevTime = now
		c.prevRMS = rms
		c.havePrev = true

		return nil, nil
	}

	dt := now.Sub(c.prevTime).Seconds()
	if dt <= 0 {
		// Duplicate or out-of-order timestamp; ignore the sample.
		return nil, nil
	}

	rate := (rms - c.prevRMS) / dt
	c.prevTime = now
	c.prevRMS = rms

	smoothed := c.pushRate(rate)

	switch c.state {
	case stateResting:
		d.tickResting(c, now, rms, smoothed)

	case stateOnsetPending:
		d.tickOnsetPending(c, rms, smoothed)

	case stateActive:
		d.tickActive(c, now, rms)

	case stateOffsetPending:
		return d.tickOffsetPending(ch, c, now, rms), nil
	}

	return nil, nil
}

// pushRate updates the moving average of the derivative and returns it.
func (c *channelState) pushRate(rate float64) float64 {
	c.rateSum += rate - c.rates[c.rateIdx]
	c.rates[c.rateIdx] = rate

	c.rateIdx++
	if c.rateIdx == len(c.rates) {
		c.rateIdx = 0
	}

	if c.rateLen < len(c.rates) {
		c.rateLen++
	}

	return c.rateSum / float64(c.rateLen)
}

// onsetCondition is the conjunction both pending and confirming onsets
// must satisfy.
func (d *Detector) onsetCondition(c *channelState, rms, smoothedRate float64) bool {
	return smoothedRate > d.cfg.RateThreshold && rms > c.threshold
}

func (d *Detector) tickResting(c *channelState, now time.Time, rms, smoothedRate float64) {
	if !d.onsetCondition(c, rms, smoothedRate) {
		return
	}

	// Refractory: ignore onsets too soon after the last confirmed offset.
	if c.hasLastOffset && now.Sub(c.lastOffset) < d.cfg.Refractory {
		return
	}

	c.state = stateOnsetPending
	c.onsetCandidate = now
	c.peak = rms
}

func (d *Detector) tickOnsetPending(c *channelState, rms, smoothedRate float64) {
	if !d.onsetCondition(c, rms, smoothedRate) {
		c.state = stateResting

		return
	}

	c.state = stateActive

	if rms > c.peak {
		c.peak = rms
	}
}

func (d *Detector) tickActive(c *channelState, now time.Time, rms float64) {
	if rms > c.peak {
		c.peak = rms
	}

	if rms < d.cfg.HysteresisFactor*c.threshold {
		c.state = stateOffsetPending
		c.offsetCandidate = now
		c.belowTicks = 1
	}
}

func (d *Detector) tickOffsetPending(ch int, c *channelState, now time.Time, rms float64) *Contraction {
	if rms >= d.cfg.HysteresisFactor*c.threshold {
		// Amplitude recovered; the contraction continues.
		c.state = stateActive

		if rms > c.peak {
			c.peak = rms
		}

		return nil
	}

	c.belowTicks++
	if c.belowTicks < d.cfg.OffsetHold {
		return nil
	}

	return d.finalize(ch, c)
}

// finalize confirms the offset at the first below-hysteresis tick, applies
// the minimum-duration and merge rules, and returns the reportable event
// (nil when the segment is discarded as noise).
func (d *Detector) finalize(ch int, c *channelState) *Contraction {
	onset := c.onsetCandidate
	offset := c.offsetCandidate

	c.state = stateResting
	c.lastOffset = offset
	c.hasLastOffset = true

	if offset.Sub(onset) < d.cfg.MinDuration {
		return nil
	}

	// Merge: a confirmed onset within the merge gap of the previous
	// event's offset extends that event instead of opening a new one.
	if n := len(c.events); n > 0 && onset.Sub(c.events[n-1].Offset) <= d.cfg.MergeGap {
		prev := &c.events[n-1]
		prev.Offset = offset

		if c.peak > prev.Peak {
			prev.Peak = c.peak
		}

		ev := *prev
		ev.Merged = true

		return &ev
	}

	c.events = append(c.events, Contraction{
		Channel: ch,
		Onset:   onset,
		Offset:  offset,
		Peak:    c.peak,
	})

	ev := c.events[len(c.events)-1]

	return &ev
}
