package filter

// Config holds the filter chain parameters. The defaults bracket the
// physiological surface-EMG band and reject 60 Hz mains interference.
type Config struct {
	SampleRate float64
	Channels   int

	BandLowHz  float64
	BandHighHz float64
	BandOrder  int // order of each band edge filter

	NotchFreqHz float64
	NotchQ      float64

	EnvelopeCutoffHz float64
	EnvelopeOrder    int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard surface-EMG conditioning parameters.
func DefaultConfig() Config {
	return Config{
		SampleRate:       2000,
		Channels:         1,
		BandLowHz:        20,
		BandHighHz:       450,
		BandOrder:        2,
		NotchFreqHz:      60,
		NotchQ:           30,
		EnvelopeCutoffHz: 5,
		EnvelopeOrder:    4,
	}
}

// WithSampleRate sets the sampling rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) { cfg.SampleRate = sampleRate }
}

// WithChannels sets the number of independent channels.
func WithChannels(channels int) Option {
	return func(cfg *Config) { cfg.Channels = channels }
}

// WithBandpass sets the bandpass edges in Hz.
func WithBandpass(low, high float64) Option {
	return func(cfg *Config) {
		cfg.BandLowHz = low
		cfg.BandHighHz = high
	}
}

// WithNotch sets the powerline notch center frequency in Hz
// (50 or 60 depending on region).
func WithNotch(freq float64) Option {
	return func(cfg *Config) { cfg.NotchFreqHz = freq }
}

// WithNotchQ sets the notch quality factor (reject bandwidth = freq/q).
func WithNotchQ(q float64) Option {
	return func(cfg *Config) { cfg.NotchQ = q }
}

// WithEnvelopeCutoff sets the envelope lowpass cutoff in Hz.
func WithEnvelopeCutoff(freq float64) Option {
	return func(cfg *Config) { cfg.EnvelopeCutoffHz = freq }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
