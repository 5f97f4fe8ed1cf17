// Package simulate generates a surface-EMG-like test signal: baseline
// noise with periodic contraction bursts, optionally drifting toward
// lower frequencies to mimic fatigue. The output is not physiological;
// it exists to exercise the processing pipeline end to end.
package simulate

import (
	"math"
	"math/rand"
	"time"
)

// Config describes the generated signal.
type Config struct {
	SampleRate float64
	Channels   int

	// Baseline is the resting noise amplitude in Volts.
	Baseline float64

	// BurstAmplitude is the contraction amplitude in Volts.
	BurstAmplitude float64

	// RestDuration and BurstDuration define the contraction cycle.
	RestDuration  time.Duration
	BurstDuration time.Duration

	// FatigueDrift shifts the burst carrier frequencies down by this
	// many Hz per second of elapsed burst time. Zero disables drift.
	FatigueDrift float64

	Seed int64
}

// DefaultConfig returns a 2 kHz single-channel signal with 2 s rest /
// 1.5 s burst cycles.
func DefaultConfig() Config {
	return Config{
		SampleRate:     2000,
		Channels:       1,
		Baseline:       0.005,
		BurstAmplitude: 0.4,
		RestDuration:   2 * time.Second,
		BurstDuration:  1500 * time.Millisecond,
		Seed:           1,
	}
}

// Carrier frequencies spanning the usual surface-EMG band.
var carriers = []float64{62, 97, 134, 178, 236, 305}

// Sim produces the signal sample by sample.
type Sim struct {
	cfg    Config
	rng    *rand.Rand
	sample int64

	// per-channel carrier phase offsets so channels decorrelate
	phases [][]float64

	burstElapsed float64
}

// New builds a simulator. Channels and SampleRate must be positive.
func New(cfg Config) *Sim {
	rng := rand.New(rand.NewSource(cfg.Seed))

	phases := make([][]float64, cfg.Channels)
	for ch := range phases {
		p := make([]float64, len(carriers))
		for i := range p {
			p[i] = rng.Float64() * 2 * math.Pi
		}
		phases[ch] = p
	}

	return &Sim{cfg: cfg, rng: rng, phases: phases}
}

// cyclePos returns the position within the rest+burst cycle in seconds.
func (s *Sim) cyclePos() float64 {
	cycle := s.cfg.RestDuration.Seconds() + s.cfg.BurstDuration.Seconds()
	t := float64(s.sample) / s.cfg.SampleRate

	return math.Mod(t, cycle)
}

// InBurst reports whether the simulator is currently inside a burst.
func (s *Sim) InBurst() bool {
	return s.cyclePos() >= s.cfg.RestDuration.Seconds()
}

// Next returns one sample per channel and advances time.
func (s *Sim) Next() []float64 {
	out := make([]float64, s.cfg.Channels)

	pos := s.cyclePos()
	rest := s.cfg.RestDuration.Seconds()
	burst := s.cfg.BurstDuration.Seconds()
	t := float64(s.sample) / s.cfg.SampleRate

	var env float64
	if pos >= rest {
		// Raised-cosine envelope over the burst keeps onsets smooth
		// enough to not look like a step edge after filtering.
		u := (pos - rest) / burst
		env = 0.5 * (1 - math.Cos(2*math.Pi*u))
		s.burstElapsed += 1 / s.cfg.SampleRate
	}

	drift := s.cfg.FatigueDrift * s.burstElapsed

	for ch := range out {
		v := (s.rng.Float64()*2 - 1) * s.cfg.Baseline

		if env > 0 {
			var c float64
			for i, f := range carriers {
				freq := f - drift
				if freq < 10 {
					freq = 10
				}
				c += math.Sin(2*math.Pi*freq*t + s.phases[ch][i])
			}
			v += env * s.cfg.BurstAmplitude * c / float64(len(carriers))
		}

		out[ch] = v
	}

	s.sample++

	return out
}

// NextBlock returns n samples per channel, channel-major.
func (s *Sim) NextBlock(n int) [][]float64 {
	block := make([][]float64, s.cfg.Channels)
	for ch := range block {
		block[ch] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		v := s.Next()
		for ch := range block {
			block[ch][i] = v[ch]
		}
	}

	return block
}
