// Package engine orchestrates the streaming EMG pipeline: it buffers raw
// chunks from the ingestion boundary, serializes processing ticks through
// the filter chain and feature extractor, routes features to the
// calibrator or the contraction detector, and emits results on buffered
// channels.
//
// Concurrency model: one producer calls Push at the device rate; one
// consumer calls Tick periodically (typically 30-60 Hz) and drains
// everything accumulated since the previous tick. Ticks never overlap;
// the pending queue is the only producer/consumer shared structure and is
// mutex-guarded. Per-channel numeric failures reset only that channel's
// state.
package engine

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-emg/emg"
	"github.com/cwbudde/algo-emg/emg/calib"
	"github.com/cwbudde/algo-emg/emg/detect"
	"github.com/cwbudde/algo-emg/emg/fatigue"
	"github.com/cwbudde/algo-emg/emg/feature"
	"github.com/cwbudde/algo-emg/emg/filter"
)

var (
	// ErrChannelCount reports a pushed chunk whose channel count does not
	// match the engine configuration.
	ErrChannelCount = errors.New("engine: chunk channel count mismatch")

	// ErrInvalidChannel reports a channel index outside the configured range.
	ErrInvalidChannel = errors.New("engine: channel index out of range")
)

// Features is one per-channel feature snapshot.
type Features struct {
	RMS  float64
	MAV  float64
	IEMG float64

	// Activation is RMS normalized by the calibrated MVC, clamped to
	// [0, 1]. Zero before calibration.
	Activation float64

	// Active reports RMS above the calibrated threshold. Always false
	// before calibration.
	Active bool
}

// Stats counts engine-level bookkeeping since construction.
type Stats struct {
	ProcessedChunks   uint64
	ProcessedSamples  uint64
	DroppedChunks     uint64
	DroppedEvents     uint64
	NumericResets     uint64
	CalibrationAborts uint64
	SaturatedSamples  []uint64
}

// Engine is the streaming EMG analysis pipeline.
type Engine struct {
	cfg      Config
	channels int

	// mu guards the structures shared between producer and consumer:
	// the pending queue, the raw rings and the saturation counters.
	mu        sync.Mutex
	pending   []emg.Chunk
	raw       []*ring
	saturated []uint64
	dropped   uint64

	// procMu serializes ticks and guards all processing state below.
	procMu     sync.Mutex
	chain      *filter.Chain
	windows    *feature.Windows
	spectrum   *feature.Spectrum
	calibrator *calib.Calibrator
	detector   *detect.Detector
	analyzer   *fatigue.Analyzer

	calibPending bool
	calibration  *calib.Result

	mfHistory []([]fatigue.Sample)
	lastMF    time.Time
	haveMF    bool

	latest filter.Output

	processedChunks  uint64
	processedSamples uint64
	droppedEvents    uint64
	numericResets    uint64
	calibAborts      uint64

	contractions chan detect.Contraction
	calibrations chan calib.Result
}

// New builds an engine from the given options. Misconfiguration
// (invalid cutoffs, window sizes, hysteresis factor) fails construction.
func New(opts ...Option) (*Engine, error) {
	cfg := ApplyOptions(opts...)

	channels := len(cfg.Channels)
	if channels == 0 {
		return nil, ErrNoChannels
	}

	cfg.Filter.SampleRate = cfg.SampleRate
	cfg.Filter.Channels = channels

	chain, err := filter.NewFromConfig(cfg.Filter)
	if err != nil {
		return nil, err
	}

	windowSamples := int(math.Round(cfg.FeatureWindow.Seconds() * cfg.SampleRate))
	if windowSamples <= 0 {
		return nil, ErrInvalidWindow
	}

	windows, err := feature.NewWindows(channels, windowSamples)
	if err != nil {
		return nil, err
	}

	spectrum, err := feature.NewSpectrum(channels, cfg.SpectrumSize, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	calibrator, err := calib.New(channels,
		calib.WithPhaseDurations(cfg.Calib.RestDuration, cfg.Calib.MVCDuration),
		calib.WithMinSamples(cfg.Calib.MinSamples),
		calib.WithSigma(cfg.Calib.Sigma))
	if err != nil {
		return nil, err
	}

	detector, err := detect.New(channels,
		detect.WithRateThreshold(cfg.Detect.RateThreshold),
		detect.WithSmoothingWindow(cfg.Detect.SmoothingWindow),
		detect.WithHysteresisFactor(cfg.Detect.HysteresisFactor),
		detect.WithOffsetHold(cfg.Detect.OffsetHold),
		detect.WithMinDuration(cfg.Detect.MinDuration),
		detect.WithRefractory(cfg.Detect.Refractory),
		detect.WithMergeGap(cfg.Detect.MergeGap))
	if err != nil {
		return nil, err
	}

	bufferSamples := int(math.Round(cfg.BufferSpan.Seconds() * cfg.SampleRate))
	if bufferSamples <= 0 {
		return nil, ErrInvalidBuffer
	}

	e := &Engine{
		cfg:          cfg,
		channels:     channels,
		raw:          make([]*ring, channels),
		saturated:    make([]uint64, channels),
		chain:        chain,
		windows:      windows,
		spectrum:     spectrum,
		calibrator:   calibrator,
		detector:     detector,
		analyzer:     fatigue.New(fatigueOptions(cfg.Fatigue)...),
		mfHistory:    make([][]fatigue.Sample, channels),
		contractions: make(chan detect.Contraction, cfg.EventBuffer),
		calibrations: make(chan calib.Result, cfg.EventBuffer),
	}

	for i := range channels {
		e.raw[i] = newRing(bufferSamples)
	}

	return e, nil
}

func fatigueOptions(cfg fatigue.Config) []fatigue.Option {
	return []fatigue.Option{
		fatigue.WithMinEvents(cfg.MinEvents),
		fatigue.WithRMSCorrelation(cfg.RMSCorrelation),
		fatigue.WithMFSlopeThreshold(cfg.MFSlopeThreshold),
	}
}

// Channels returns the configured channel identities.
func (e *Engine) Channels() []emg.Channel {
	out := make([]emg.Channel, len(e.cfg.Channels))
	copy(out, e.cfg.Channels)

	return out
}

// Push enqueues a raw chunk from the ingestion boundary. It is safe to
// call concurrently with Tick. When the pending queue is full the oldest
// chunk is dropped and counted.
func (e *Engine) Push(chunk emg.Chunk) error {
	if chunk.Channels() != e.channels {
		return ErrChannelCount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.SaturationLimit > 0 {
		for ch, samples := range chunk.Samples {
			for _, x := range samples {
				if x >= e.cfg.SaturationLimit || x <= -e.cfg.SaturationLimit {
					e.saturated[ch]++
				}
			}
		}
	}

	for ch, samples := range chunk.Samples {
		e.raw[ch].push(samples)
	}

	if len(e.pending) >= e.cfg.QueueCapacity {
		copy(e.pending, e.pending[1:])
		e.pending = e.pending[:len(e.pending)-1]
		e.dropped++
	}

	e.pending = append(e.pending, chunk)

	return nil
}

// Tick drains and processes every chunk accumulated since the previous
// tick. Ticks are serialized; the call returns the number of chunks
// processed. Recoverable per-channel failures are counted in Stats; the
// returned error reports calibration aborts.
func (e *Engine) Tick() (int, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	e.mu.Lock()
	chunks := e.pending
	e.pending = nil
	e.mu.Unlock()

	var firstErr error

	for _, chunk := range chunks {
		if err := e.process(chunk); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return len(chunks), firstErr
}

// process runs one chunk through the pipeline. Called with procMu held.
func (e *Engine) process(chunk emg.Chunk) error {
	out, err := e.chain.Process(chunk)
	if err != nil {
		return err
	}

	for _, ch := range out.ResetChannels {
		e.windows.ResetChannel(ch)
		e.spectrum.ResetChannel(ch)
		e.detector.ResetChannel(ch)
		e.numericResets++
	}

	for ch := range e.channels {
		_ = e.windows.Push(ch, out.Envelope[ch])
		_ = e.spectrum.Push(ch, out.Filtered[ch])
	}

	e.latest = out
	e.processedChunks++
	e.processedSamples += uint64(chunk.Len())

	rms, ok := e.rmsVector()
	if !ok {
		// Feature windows still warming up.
		return nil
	}

	now := chunk.End()

	if e.calibPending {
		e.calibPending = false

		if err := e.calibrator.Start(now); err != nil {
			return err
		}
	}

	if e.calibrator.Running() {
		// Detection is paused for the whole channel set while
		// calibrating: deliberate effort during the MVC phase must not
		// show up as contraction events.
		res, err := e.calibrator.Push(now, rms)
		if err != nil {
			e.calibAborts++

			return err
		}

		if res != nil {
			e.installCalibration(res)
		}

		return nil
	}

	if e.calibration == nil {
		return nil
	}

	for ch := range e.channels {
		ev, err := e.detector.Push(ch, now, rms[ch])
		if err != nil {
			continue
		}

		if ev != nil {
			e.emitContraction(*ev)
		}
	}

	e.recordMedianFrequency(now)

	return nil
}

func (e *Engine) rmsVector() ([]float64, bool) {
	rms := make([]float64, e.channels)

	for ch := range e.channels {
		v, err := e.windows.RMS(ch)
		if err != nil {
			return nil, false
		}

		rms[ch] = v
	}

	return rms, true
}

func (e *Engine) installCalibration(res *calib.Result) {
	e.calibration = res

	thresholds := make([]float64, e.channels)
	for ch, c := range res.Channels {
		thresholds[ch] = c.Threshold
	}

	_ = e.detector.SetThresholds(thresholds)

	select {
	case e.calibrations <- *res:
	default:
		e.droppedEvents++
	}
}

func (e *Engine) emitContraction(ev detect.Contraction) {
	select {
	case e.contractions <- ev:
	default:
		e.droppedEvents++
	}
}

func (e *Engine) recordMedianFrequency(now time.Time) {
	if e.haveMF && now.Sub(e.lastMF) < e.cfg.MedianFreqInterval {
		return
	}

	recorded := false

	for ch := range e.channels {
		mf, err := e.spectrum.MedianFrequency(ch)
		if err != nil {
			continue
		}

		e.mfHistory[ch] = append(e.mfHistory[ch], fatigue.Sample{Time: now, Value: mf})
		recorded = true
	}

	if recorded {
		e.lastMF = now
		e.haveMF = true
	}
}

// StartCalibration requests a calibration run beginning at the next
// processed chunk. It fails with calib.ErrCalibrationRunning while a run
// is in progress.
func (e *Engine) StartCalibration() error {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	if e.calibPending || e.calibrator.Running() {
		return calib.ErrCalibrationRunning
	}

	e.calibPending = true

	return nil
}

// Calibrating reports whether a calibration run is in progress or pending.
func (e *Engine) Calibrating() bool {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.calibPending || e.calibrator.Running()
}

// Calibration returns the active calibration result, if any.
func (e *Engine) Calibration() (*calib.Result, bool) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.calibration, e.calibration != nil
}

// Contractions returns the channel on which finalized contraction events
// are delivered. Events are dropped (and counted) when the consumer
// falls behind.
func (e *Engine) Contractions() <-chan detect.Contraction {
	return e.contractions
}

// Calibrations returns the channel on which completed calibration
// results are delivered.
func (e *Engine) Calibrations() <-chan calib.Result {
	return e.calibrations
}

// Features returns the current feature snapshot for a channel, or
// feature.ErrInsufficientData while the window is warming up.
func (e *Engine) Features(ch int) (Features, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	if ch < 0 || ch >= e.channels {
		return Features{}, ErrInvalidChannel
	}

	rms, err := e.windows.RMS(ch)
	if err != nil {
		return Features{}, err
	}

	mav, err := e.windows.MAV(ch)
	if err != nil {
		return Features{}, err
	}

	iemg, err := e.windows.IEMG(ch)
	if err != nil {
		return Features{}, err
	}

	f := Features{RMS: rms, MAV: mav, IEMG: iemg}

	if e.calibration != nil {
		c := e.calibration.Channels[ch]

		f.Active = rms > c.Threshold

		if c.MVC > 0 {
			f.Activation = math.Min(math.Max(rms/c.MVC, 0), 1)
		}
	}

	return f, nil
}

// Spectrum returns the one-sided magnitude spectrum of the channel's
// trailing segment.
func (e *Engine) Spectrum(ch int) ([]float64, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.spectrum.Magnitude(ch)
}

// MedianFrequency returns the current median frequency of the channel's
// trailing segment.
func (e *Engine) MedianFrequency(ch int) (float64, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.spectrum.MedianFrequency(ch)
}

// Filtered returns the output of the most recent processed chunk. The
// slices are never mutated after a tick completes and may be retained.
func (e *Engine) Filtered() filter.Output {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.latest
}

// Events returns a copy of the channel's ordered contraction log.
func (e *Engine) Events(ch int) []detect.Contraction {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	return e.detector.Events(ch)
}

// FatiguePeakRMS evaluates the RMS-based fatigue criterion over the
// channel's contraction history.
func (e *Engine) FatiguePeakRMS(ch int) (fatigue.Result, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	if ch < 0 || ch >= e.channels {
		return fatigue.Result{}, ErrInvalidChannel
	}

	return e.analyzer.PeakRMS(e.detector.Events(ch)), nil
}

// FatigueMedianFreq evaluates the frequency-based fatigue criterion over
// the channel's accumulated median-frequency history.
func (e *Engine) FatigueMedianFreq(ch int) (fatigue.Result, error) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	if ch < 0 || ch >= e.channels {
		return fatigue.Result{}, ErrInvalidChannel
	}

	series := make([]fatigue.Sample, len(e.mfHistory[ch]))
	copy(series, e.mfHistory[ch])

	return e.analyzer.MedianFrequency(series), nil
}

// Raw returns up to n of the most recent raw samples of a channel,
// oldest first.
func (e *Engine) Raw(ch, n int) ([]float64, error) {
	if ch < 0 || ch >= e.channels {
		return nil, ErrInvalidChannel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.raw[ch].tail(n), nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.procMu.Lock()
	processed := e.processedChunks
	samples := e.processedSamples
	droppedEvents := e.droppedEvents
	resets := e.numericResets
	aborts := e.calibAborts
	e.procMu.Unlock()

	e.mu.Lock()
	dropped := e.dropped
	saturated := make([]uint64, len(e.saturated))
	copy(saturated, e.saturated)
	e.mu.Unlock()

	return Stats{
		ProcessedChunks:   processed,
		ProcessedSamples:  samples,
		DroppedChunks:     dropped,
		DroppedEvents:     droppedEvents,
		NumericResets:     resets,
		CalibrationAborts: aborts,
		SaturatedSamples:  saturated,
	}
}
