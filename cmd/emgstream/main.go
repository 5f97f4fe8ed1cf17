// Command emgstream consumes raw EMG chunks from NATS, runs them through
// the streaming analysis engine, and publishes detected contraction
// events as JSON. Pair it with emgsim for a hardware-free pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-emg/emg/calib"
	"github.com/cwbudde/algo-emg/emg/detect"
	"github.com/cwbudde/algo-emg/emg/engine"
	"github.com/cwbudde/algo-emg/internal/config"
	"github.com/cwbudde/algo-emg/internal/stream"
)

var (
	flagConfig        string
	flagNATS          string
	flagSubject       string
	flagEventsSubject string

	flagFS            float64
	flagChannels      int
	flagBandLow       float64
	flagBandHigh      float64
	flagNotch         float64
	flagEnvelope      float64
	flagWindow        time.Duration
	flagRateThresh    float64
	flagHysteresis    float64
	flagMinDuration   time.Duration
	flagRefractory    time.Duration
	flagRest          time.Duration
	flagMVC           time.Duration
	flagSaturation    float64
	flagTick          time.Duration
	flagStatusEvery   time.Duration
	flagCalibrate     bool
)

// EventMsg is the published JSON record for one contraction.
type EventMsg struct {
	Session  string  `json:"session"`
	Channel  int     `json:"channel"`
	OnsetMs  int64   `json:"onset_ms"`
	OffsetMs int64   `json:"offset_ms"`
	PeakRMS  float64 `json:"peak_rms"`
	Merged   bool    `json:"merged"`
}

// CalibMsg is the published JSON record for a completed calibration.
type CalibMsg struct {
	Session    string    `json:"session"`
	Channels   []ChanMsg `json:"channels"`
	FinishedMs int64     `json:"finished_ms"`
}

// ChanMsg is one channel's calibration summary.
type ChanMsg struct {
	Baseline  float64 `json:"baseline"`
	Threshold float64 `json:"threshold"`
	MVC       float64 `json:"mvc"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "emgstream",
		Short:         "Streaming EMG contraction detector",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          run,
	}

	f := rootCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "TOML config file")
	f.StringVar(&flagNATS, "nats", "nats://127.0.0.1:4222", "NATS url")
	f.StringVar(&flagSubject, "subject", "emg.raw", "input subject")
	f.StringVar(&flagEventsSubject, "events-subject", "emg.events", "output subject")

	f.Float64Var(&flagFS, "fs", 2000, "sampling rate Hz")
	f.IntVar(&flagChannels, "channels", 1, "channel count")
	f.Float64Var(&flagBandLow, "band-low", 20, "bandpass low cutoff Hz")
	f.Float64Var(&flagBandHigh, "band-high", 450, "bandpass high cutoff Hz")
	f.Float64Var(&flagNotch, "notch", 60, "mains notch frequency Hz")
	f.Float64Var(&flagEnvelope, "envelope", 5, "envelope cutoff Hz")
	f.DurationVar(&flagWindow, "window", 200*time.Millisecond, "feature window span")
	f.Float64Var(&flagRateThresh, "rate-threshold", 0.005, "onset rate threshold V/s")
	f.Float64Var(&flagHysteresis, "hysteresis", 0.5, "offset hysteresis factor (0.3-0.7)")
	f.DurationVar(&flagMinDuration, "min-duration", 300*time.Millisecond, "minimum contraction duration")
	f.DurationVar(&flagRefractory, "refractory", 150*time.Millisecond, "post-offset refractory span")
	f.DurationVar(&flagRest, "rest", 3*time.Second, "calibration rest phase")
	f.DurationVar(&flagMVC, "mvc", 3*time.Second, "calibration MVC phase")
	f.Float64Var(&flagSaturation, "saturation", 0, "saturation amplitude V (0 disables)")
	f.DurationVar(&flagTick, "tick", 33*time.Millisecond, "processing tick interval")
	f.DurationVar(&flagStatusEvery, "status", 5*time.Second, "status log interval (0 disables)")
	f.BoolVar(&flagCalibrate, "calibrate", true, "run calibration before detecting")

	return rootCmd
}

func run(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFileConfig(cmd, fileCfg)

	eng, err := engine.New(
		engine.WithSampleRate(flagFS),
		engine.WithChannels(flagChannels),
		engine.WithBandpass(flagBandLow, flagBandHigh),
		engine.WithNotch(flagNotch),
		engine.WithEnvelopeCutoff(flagEnvelope),
		engine.WithFeatureWindow(flagWindow),
		engine.WithRateThreshold(flagRateThresh),
		engine.WithHysteresisFactor(flagHysteresis),
		engine.WithMinContractionDuration(flagMinDuration),
		engine.WithRefractoryDuration(flagRefractory),
		engine.WithCalibrationPhases(flagRest, flagMVC),
		engine.WithSaturationLimit(flagSaturation),
	)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	nc, err := stream.Connect(flagNATS, "emgstream")
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer nc.Drain()

	session := uuid.NewString()
	log.Printf("emgstream: session %s, %d ch at %.0f Hz on %q", session, flagChannels, flagFS, flagSubject)

	sub, err := nc.Subscribe(flagSubject, func(msg *nats.Msg) {
		chunk, err := stream.DecodeChunk(msg.Data)
		if err != nil {
			log.Printf("emgstream: decode: %v", err)
			return
		}
		if err := eng.Push(chunk); err != nil {
			log.Printf("emgstream: push: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if flagCalibrate {
		if err := eng.StartCalibration(); err != nil {
			return fmt.Errorf("failed to start calibration: %w", err)
		}
		log.Printf("emgstream: calibrating (%s rest + %s effort), stay relaxed then contract", flagRest, flagMVC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	osSignal.Notify(sigCh, os.Interrupt)

	go func() {
		<-sigCh
		cancel()
	}()

	ticker := time.NewTicker(flagTick)
	defer ticker.Stop()

	var status <-chan time.Time
	if flagStatusEvery > 0 {
		st := time.NewTicker(flagStatusEvery)
		defer st.Stop()
		status = st.C
	}

	for {
		select {
		case <-ctx.Done():
			stats := eng.Stats()
			log.Printf("emgstream: stopping: %d chunks, %d dropped, %d resets",
				stats.ProcessedChunks, stats.DroppedChunks, stats.NumericResets)
			return nil

		case <-ticker.C:
			if _, err := eng.Tick(); err != nil {
				log.Printf("emgstream: tick: %v", err)
			}
			drainEvents(nc, eng, session)

		case <-status:
			logStatus(eng)
		}
	}
}

func drainEvents(nc *nats.Conn, eng *engine.Engine, session string) {
	for {
		select {
		case ev := <-eng.Contractions():
			publishEvent(nc, session, ev)

		case res := <-eng.Calibrations():
			publishCalibration(nc, session, res)

		default:
			return
		}
	}
}

func publishEvent(nc *nats.Conn, session string, ev detect.Contraction) {
	msg := EventMsg{
		Session:  session,
		Channel:  ev.Channel,
		OnsetMs:  ev.Onset.UnixMilli(),
		OffsetMs: ev.Offset.UnixMilli(),
		PeakRMS:  ev.Peak,
		Merged:   ev.Merged,
	}

	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("emgstream: marshal event: %v", err)
		return
	}

	if err := nc.Publish(flagEventsSubject, b); err != nil {
		log.Printf("emgstream: publish event: %v", err)
	}

	log.Printf("emgstream: ch %d contraction %s (peak %.4f V)", ev.Channel, ev.Duration(), ev.Peak)
}

func publishCalibration(nc *nats.Conn, session string, res calib.Result) {
	msg := CalibMsg{
		Session:    session,
		FinishedMs: res.CompletedAt.UnixMilli(),
		Channels:   make([]ChanMsg, len(res.Channels)),
	}
	for i, c := range res.Channels {
		msg.Channels[i] = ChanMsg{Baseline: c.Baseline, Threshold: c.Threshold, MVC: c.MVC}
	}

	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("emgstream: marshal calibration: %v", err)
		return
	}

	if err := nc.Publish(flagEventsSubject, b); err != nil {
		log.Printf("emgstream: publish calibration: %v", err)
	}

	for i, c := range res.Channels {
		log.Printf("emgstream: ch %d calibrated: baseline %.5f V, threshold %.5f V, MVC %.4f V",
			i, c.Baseline, c.Threshold, c.MVC)
	}
}

func logStatus(eng *engine.Engine) {
	for ch := range eng.Channels() {
		f, err := eng.Features(ch)
		if err != nil {
			continue
		}

		mf, mfErr := eng.MedianFrequency(ch)
		if mfErr != nil {
			log.Printf("emgstream: ch %d rms %.5f V mav %.5f V act %.0f%%", ch, f.RMS, f.MAV, f.Activation*100)
			continue
		}

		log.Printf("emgstream: ch %d rms %.5f V mav %.5f V act %.0f%% mf %.1f Hz",
			ch, f.RMS, f.MAV, f.Activation*100, mf)
	}
}

func applyFileConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyString(cmd, "nats", &flagNATS, fileCfg.Stream.URL)
	applyString(cmd, "subject", &flagSubject, fileCfg.Stream.Subject)
	applyString(cmd, "events-subject", &flagEventsSubject, fileCfg.Stream.EventsSubject)

	applyFloat(cmd, "fs", &flagFS, fileCfg.Engine.SampleRate)
	applyInt(cmd, "channels", &flagChannels, fileCfg.Engine.Channels)
	applyFloat(cmd, "band-low", &flagBandLow, fileCfg.Engine.BandLow)
	applyFloat(cmd, "band-high", &flagBandHigh, fileCfg.Engine.BandHigh)
	applyFloat(cmd, "notch", &flagNotch, fileCfg.Engine.Notch)
	applyFloat(cmd, "envelope", &flagEnvelope, fileCfg.Engine.Envelope)
	applyFloat(cmd, "rate-threshold", &flagRateThresh, fileCfg.Engine.RateThreshold)
	applyFloat(cmd, "hysteresis", &flagHysteresis, fileCfg.Engine.Hysteresis)
	applyFloat(cmd, "saturation", &flagSaturation, fileCfg.Engine.SaturationLimit)
	applyDurationMs(cmd, "window", &flagWindow, fileCfg.Engine.WindowMs)
	applyDurationMs(cmd, "min-duration", &flagMinDuration, fileCfg.Engine.MinDurationMs)
	applyDurationMs(cmd, "refractory", &flagRefractory, fileCfg.Engine.RefractoryMs)
	applyDurationSec(cmd, "rest", &flagRest, fileCfg.Engine.RestSeconds)
	applyDurationSec(cmd, "mvc", &flagMVC, fileCfg.Engine.MVCSeconds)
}

func applyString(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloat(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationMs(cmd *cobra.Command, name string, target *time.Duration, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func applyDurationSec(cmd *cobra.Command, name string, target *time.Duration, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value * float64(time.Second))
}
