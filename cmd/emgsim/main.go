// Command emgsim publishes a synthetic surface-EMG signal over NATS in
// fixed-size chunks, mimicking an acquisition device. Pair it with
// emgstream to exercise the full pipeline without hardware.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	osSignal "os/signal"
	"time"

	"github.com/cwbudde/algo-emg/emg"
	"github.com/cwbudde/algo-emg/internal/simulate"
	"github.com/cwbudde/algo-emg/internal/stream"
)

func main() {
	var (
		natsURL  = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		subject  = flag.String("subject", "emg.raw", "subject")
		fs       = flag.Float64("fs", 2000, "sampling rate Hz")
		channels = flag.Int("channels", 1, "channel count")
		chunk    = flag.Int("chunk", 64, "samples per message")
		amp      = flag.Float64("amp", 0.4, "burst amplitude V")
		noise    = flag.Float64("noise", 0.005, "baseline noise amplitude V")
		rest     = flag.Duration("rest", 2*time.Second, "rest span per cycle")
		burst    = flag.Duration("burst", 1500*time.Millisecond, "burst span per cycle")
		fatigue  = flag.Float64("fatigue", 0, "median frequency decline Hz per burst second")
		seed     = flag.Int64("seed", 1, "rng seed")
	)
	flag.Parse()

	nc, err := stream.Connect(*natsURL, "emgsim")
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Drain()

	sim := simulate.New(simulate.Config{
		SampleRate:     *fs,
		Channels:       *channels,
		Baseline:       *noise,
		BurstAmplitude: *amp,
		RestDuration:   *rest,
		BurstDuration:  *burst,
		FatigueDrift:   *fatigue,
		Seed:           *seed,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	osSignal.Notify(ch, os.Interrupt)

	go func() {
		<-ch
		cancel()
	}()

	period := time.Duration(float64(*chunk) / *fs * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Printf("emgsim: %d ch at %.0f Hz, %d samples per message on %q", *channels, *fs, *chunk, *subject)

	for {
		select {
		case <-ctx.Done():
			log.Println("emgsim: stopping")
			return

		case now := <-ticker.C:
			msg := emg.Chunk{
				Timestamp:  now.Add(-period),
				SampleRate: *fs,
				Samples:    sim.NextBlock(*chunk),
			}

			data, err := stream.EncodeChunk(msg)
			if err != nil {
				log.Fatalf("emgsim: encode: %v", err)
			}

			if err := nc.Publish(*subject, data); err != nil {
				log.Printf("emgsim: publish: %v", err)
			}
		}
	}
}
