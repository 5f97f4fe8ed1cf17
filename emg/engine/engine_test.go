package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-emg/emg"
	"github.com/cwbudde/algo-emg/emg/calib"
	"github.com/cwbudde/algo-emg/emg/detect"
	"github.com/cwbudde/algo-emg/emg/feature"
)

const (
	testRate = 2000.0
	chunkLen = 100 // 50 ms per chunk
	toneFreq = 150 // in-band carrier
)

// segment is one span of the scripted amplitude profile.
type segment struct {
	until time.Duration // profile end, from stream start
	amp   func(t float64) float64
}

// scriptedChunks synthesizes a 150 Hz carrier whose amplitude follows the
// given segments, split into acquisition-sized chunks.
func scriptedChunks(segments []segment) []emg.Chunk {
	total := segments[len(segments)-1].until
	n := int(total.Seconds() * testRate)

	signal := make([]float64, n)
	for i := range signal {
		t := float64(i) / testRate

		var a float64
		for _, seg := range segments {
			if t < seg.until.Seconds() {
				a = seg.amp(t)
				break
			}
		}

		signal[i] = a * math.Sin(2*math.Pi*toneFreq*t)
	}

	start := time.Unix(0, 0)
	var chunks []emg.Chunk
	for off := 0; off+chunkLen <= n; off += chunkLen {
		buf := make([]float64, chunkLen)
		copy(buf, signal[off:off+chunkLen])
		chunks = append(chunks, emg.Chunk{
			Timestamp:  start.Add(time.Duration(float64(off) / testRate * float64(time.Second))),
			SampleRate: testRate,
			Samples:    [][]float64{buf},
		})
	}

	return chunks
}

func constant(a float64) func(float64) float64 {
	return func(float64) float64 { return a }
}

// alternating flips between lo and hi every block seconds, giving the
// rest phase a non-zero RMS spread for the threshold statistics.
func alternating(lo, hi, block float64) func(float64) float64 {
	return func(t float64) float64 {
		if int(t/block)%2 == 0 {
			return lo
		}
		return hi
	}
}

// drive pushes every chunk with a tick after each, collecting emitted
// events and calibration results.
func drive(t *testing.T, eng *Engine, chunks []emg.Chunk) ([]detect.Contraction, []calib.Result) {
	t.Helper()

	var events []detect.Contraction
	var results []calib.Result

	for _, chunk := range chunks {
		if err := eng.Push(chunk); err != nil {
			t.Fatalf("Push: %v", err)
		}
		if _, err := eng.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}

		for {
			select {
			case ev := <-eng.Contractions():
				events = append(events, ev)
				continue
			case res := <-eng.Calibrations():
				results = append(results, res)
				continue
			default:
			}
			break
		}
	}

	return events, results
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	base := []Option{
		WithSampleRate(testRate),
		WithChannels(1),
		WithFeatureWindow(100 * time.Millisecond),
		WithSpectrumSize(256),
		WithCalibrationPhases(time.Second, time.Second),
	}

	eng, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return eng
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(WithChannels(0)); !errors.Is(err, ErrNoChannels) {
		t.Fatalf("no channels: err = %v, want ErrNoChannels", err)
	}
	if _, err := New(WithFeatureWindow(0)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("zero window: err = %v, want ErrInvalidWindow", err)
	}
	if _, err := New(WithBandpass(450, 20)); err == nil {
		t.Fatal("reversed band edges accepted")
	}
	if _, err := New(WithSpectrumSize(1000)); !errors.Is(err, feature.ErrInvalidSegment) {
		t.Fatalf("non-power-of-two spectrum: err = %v, want ErrInvalidSegment", err)
	}
}

func TestPush_ChannelMismatch(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.Push(emg.Chunk{
		Timestamp:  time.Unix(0, 0),
		SampleRate: testRate,
		Samples:    [][]float64{make([]float64, 10), make([]float64, 10)},
	})
	if !errors.Is(err, ErrChannelCount) {
		t.Fatalf("err = %v, want ErrChannelCount", err)
	}
}

func TestFeatures_WarmupThenAvailable(t *testing.T) {
	eng := newTestEngine(t)

	chunks := scriptedChunks([]segment{{until: time.Second, amp: constant(0.5)}})

	// One 50 ms chunk cannot fill a 100 ms feature window.
	if err := eng.Push(chunks[0]); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := eng.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := eng.Features(0); !errors.Is(err, feature.ErrInsufficientData) {
		t.Fatalf("warmup Features: err = %v, want ErrInsufficientData", err)
	}

	drive(t, eng, chunks[1:])

	f, err := eng.Features(0)
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	// The settled envelope of a 0.5-amplitude sine sits near 2*0.5/pi.
	if f.RMS < 0.2 || f.RMS > 0.45 {
		t.Fatalf("RMS = %v, want near %v", f.RMS, 1/math.Pi)
	}
	if f.IEMG <= f.MAV {
		t.Fatalf("IEMG = %v not above MAV = %v", f.IEMG, f.MAV)
	}
	// Uncalibrated: no activation, never active.
	if f.Activation != 0 || f.Active {
		t.Fatalf("uncalibrated snapshot = %+v", f)
	}

	if _, err := eng.Features(1); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("bad channel: err = %v, want ErrInvalidChannel", err)
	}
}

func TestCalibrationAndDetection_EndToEnd(t *testing.T) {
	eng := newTestEngine(t)

	if err := eng.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration: %v", err)
	}
	// A second request while one is pending must be rejected.
	if err := eng.StartCalibration(); !errors.Is(err, calib.ErrCalibrationRunning) {
		t.Fatalf("second StartCalibration: err = %v, want ErrCalibrationRunning", err)
	}
	if !eng.Calibrating() {
		t.Fatal("Calibrating false with a pending run")
	}

	// Timeline: rest statistics until 1.1 s (calibration starts at the
	// 0.1 s mark once the feature window fills), maximum effort through
	// 2.3 s, quiet, one 0.8 s burst, quiet tail.
	chunks := scriptedChunks([]segment{
		{until: 1100 * time.Millisecond, amp: alternating(0.002, 0.02, 0.2)},
		{until: 2300 * time.Millisecond, amp: constant(1.0)},
		{until: 3300 * time.Millisecond, amp: constant(0.002)},
		{until: 4100 * time.Millisecond, amp: constant(1.0)},
		{until: 5600 * time.Millisecond, amp: constant(0.002)},
	})

	events, results := drive(t, eng, chunks)

	if len(results) != 1 {
		t.Fatalf("calibration results = %d, want 1", len(results))
	}

	ch := results[0].Channels[0]
	if ch.Baseline <= 0 {
		t.Fatalf("baseline = %v, want positive", ch.Baseline)
	}
	if ch.Threshold <= ch.Baseline {
		t.Fatalf("threshold %v not above baseline %v", ch.Threshold, ch.Baseline)
	}
	if ch.MVC < 10*ch.Baseline {
		t.Fatalf("MVC %v not well above baseline %v", ch.MVC, ch.Baseline)
	}

	stored, ok := eng.Calibration()
	if !ok || stored.Channels[0] != ch {
		t.Fatal("Calibration() does not return the completed result")
	}
	if eng.Calibrating() {
		t.Fatal("Calibrating true after completion")
	}

	if len(events) != 1 {
		t.Fatalf("contraction events = %d, want 1: %+v", len(events), events)
	}

	ev := events[0]
	start := time.Unix(0, 0)
	if ev.Onset.Before(start.Add(3300*time.Millisecond)) || ev.Onset.After(start.Add(3700*time.Millisecond)) {
		t.Fatalf("onset = %v, want shortly after the 3.3 s burst start", ev.Onset.Sub(start))
	}
	if ev.Offset.Before(start.Add(4100*time.Millisecond)) || ev.Offset.After(start.Add(5100*time.Millisecond)) {
		t.Fatalf("offset = %v, want shortly after the 4.1 s burst end", ev.Offset.Sub(start))
	}
	if ev.Duration() < 300*time.Millisecond {
		t.Fatalf("duration = %v, below the reporting minimum", ev.Duration())
	}
	if ev.Peak < ch.Threshold {
		t.Fatalf("peak %v below threshold %v", ev.Peak, ch.Threshold)
	}

	// The event log agrees with the emitted stream.
	log := eng.Events(0)
	if len(log) != 1 || !log[0].Onset.Equal(ev.Onset) {
		t.Fatalf("event log = %+v", log)
	}

	// Quiet tail: activation near zero, channel inactive.
	f, err := eng.Features(0)
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	if f.Active {
		t.Fatal("channel active in the quiet tail")
	}
	if f.Activation > 0.1 {
		t.Fatalf("activation = %v in the quiet tail", f.Activation)
	}

	// The carrier dominates the spectrum throughout.
	mf, err := eng.MedianFrequency(0)
	if err != nil {
		t.Fatalf("MedianFrequency: %v", err)
	}
	if math.Abs(mf-toneFreq) > 20 {
		t.Fatalf("median frequency = %v, want near %v", mf, toneFreq)
	}

	stats := eng.Stats()
	if stats.ProcessedChunks != uint64(len(chunks)) {
		t.Fatalf("processed = %d, want %d", stats.ProcessedChunks, len(chunks))
	}
	if stats.DroppedChunks != 0 || stats.NumericResets != 0 {
		t.Fatalf("unexpected drops/resets: %+v", stats)
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	eng := newTestEngine(t, WithQueueCapacity(4))

	chunks := scriptedChunks([]segment{{until: 500 * time.Millisecond, amp: constant(0.1)}})

	// Ten pushes without a tick overflow the 4-slot queue.
	for _, chunk := range chunks {
		if err := eng.Push(chunk); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	n, err := eng.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if n != 4 {
		t.Fatalf("processed = %d, want 4", n)
	}

	stats := eng.Stats()
	if want := uint64(len(chunks) - 4); stats.DroppedChunks != want {
		t.Fatalf("dropped = %d, want %d", stats.DroppedChunks, want)
	}
}

func TestRawBufferHoldsRecentSamples(t *testing.T) {
	eng := newTestEngine(t, WithBufferSpan(200*time.Millisecond))

	chunks := scriptedChunks([]segment{{until: time.Second, amp: constant(0.5)}})
	drive(t, eng, chunks)

	raw, err := eng.Raw(0, 100)
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if len(raw) != 100 {
		t.Fatalf("len = %d, want 100", len(raw))
	}

	// Most recent 100 raw samples match the source chunk exactly.
	last := chunks[len(chunks)-1].Samples[0]
	for i := range raw {
		if raw[i] != last[i] {
			t.Fatalf("raw[%d] = %v, want %v", i, raw[i], last[i])
		}
	}

	if _, err := eng.Raw(3, 10); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("bad channel: err = %v, want ErrInvalidChannel", err)
	}
}

func TestNumericInstabilityResetsChannel(t *testing.T) {
	eng := newTestEngine(t)

	chunks := scriptedChunks([]segment{{until: 400 * time.Millisecond, amp: constant(0.5)}})
	drive(t, eng, chunks)

	poison := scriptedChunks([]segment{{until: 100 * time.Millisecond, amp: constant(0.5)}})[0]
	poison.Timestamp = chunks[len(chunks)-1].Timestamp.Add(50 * time.Millisecond)
	poison.Samples[0][10] = math.NaN()

	if err := eng.Push(poison); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := eng.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	stats := eng.Stats()
	if stats.NumericResets != 1 {
		t.Fatalf("numeric resets = %d, want 1", stats.NumericResets)
	}

	// Feature window restarts from scratch after the reset.
	if _, err := eng.Features(0); !errors.Is(err, feature.ErrInsufficientData) {
		t.Fatalf("post-reset Features: err = %v, want ErrInsufficientData", err)
	}
}

func TestSaturationCounting(t *testing.T) {
	eng := newTestEngine(t, WithSaturationLimit(0.4))

	chunks := scriptedChunks([]segment{{until: 100 * time.Millisecond, amp: constant(0.5)}})
	drive(t, eng, chunks)

	stats := eng.Stats()
	if len(stats.SaturatedSamples) != 1 || stats.SaturatedSamples[0] == 0 {
		t.Fatalf("saturated = %v, want non-zero count for channel 0", stats.SaturatedSamples)
	}
}

func TestGridChannels(t *testing.T) {
	eng, err := New(
		WithSampleRate(testRate),
		WithGrid(2, 4),
		WithFeatureWindow(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chs := eng.Channels()
	if len(chs) != 8 {
		t.Fatalf("channels = %d, want 8", len(chs))
	}
	if chs[5].Row != 1 || chs[5].Col != 1 {
		t.Fatalf("chs[5] = %+v, want row 1 col 1", chs[5])
	}
}
