package testutil

import (
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-emg/emg"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Burst generates a signal that is quiet outside [onset, offset) and
// carries a sine of the given amplitude inside. Sample indices, not
// seconds. Useful for exercising onset/offset detection with a known
// ground truth.
func Burst(freqHz, sampleRate, amplitude float64, length, onset, offset int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := onset; i < offset && i < length; i++ {
		if i < 0 {
			continue
		}
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// SyntheticEMG generates a deterministic surface-EMG-like signal:
// band-limited noise bursts riding on a small baseline noise floor.
// Bursts are given as [onset, offset) sample index pairs.
func SyntheticEMG(seed int64, sampleRate, baseline, burstAmplitude float64, length int, bursts [][2]int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * baseline
	}
	// Sum of sines across the EMG band approximates the burst spectrum
	// well enough for filter and detector tests.
	freqs := []float64{60, 95, 130, 180, 240, 310}
	for _, b := range bursts {
		for i := b[0]; i < b[1] && i < length; i++ {
			if i < 0 {
				continue
			}
			var v float64
			for k, f := range freqs {
				phase := 2 * math.Pi * f * float64(i) / sampleRate
				v += math.Sin(phase + float64(k))
			}
			out[i] += burstAmplitude * v / float64(len(freqs))
		}
	}
	return out
}

// Chunks splits a single-channel signal into fixed-size chunks with
// consistent timestamps, mimicking an acquisition device.
func Chunks(signal []float64, sampleRate float64, chunkLen int, start time.Time) []emg.Chunk {
	var out []emg.Chunk
	for off := 0; off < len(signal); off += chunkLen {
		end := off + chunkLen
		if end > len(signal) {
			end = len(signal)
		}
		samples := make([]float64, end-off)
		copy(samples, signal[off:end])
		out = append(out, emg.Chunk{
			Timestamp:  start.Add(time.Duration(float64(off) / sampleRate * float64(time.Second))),
			SampleRate: sampleRate,
			Samples:    [][]float64{samples},
		})
	}
	return out
}

// MultiChunks is Chunks for several channels carrying the same per-channel
// signals.
func MultiChunks(signals [][]float64, sampleRate float64, chunkLen int, start time.Time) []emg.Chunk {
	if len(signals) == 0 {
		return nil
	}
	length := len(signals[0])
	var out []emg.Chunk
	for off := 0; off < length; off += chunkLen {
		end := off + chunkLen
		if end > length {
			end = length
		}
		samples := make([][]float64, len(signals))
		for ch := range signals {
			buf := make([]float64, end-off)
			copy(buf, signals[ch][off:end])
			samples[ch] = buf
		}
		out = append(out, emg.Chunk{
			Timestamp:  start.Add(time.Duration(float64(off) / sampleRate * float64(time.Second))),
			SampleRate: sampleRate,
			Samples:    samples,
		})
	}
	return out
}
