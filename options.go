package muse

import (
	"log/slog"

	"github.com/alextrzyna/mcp-muse-sub000/internal/audio"
	"github.com/alextrzyna/mcp-muse-sub000/internal/mixer"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

// DefaultSampleRate is used when no rate is configured.
const DefaultSampleRate = 44100

// Option configures a Session, a Player or an offline render.
type Option func(*config)

type config struct {
	sampleRate int
	backend    audio.Backend
	strategy   voice.StealStrategy
	maxVoices  int
	onePole    bool
	rand       synth.Rand
	presets    request.PresetSource
	logger     *slog.Logger
	sampleTap  func([]float32)
	mix        []func(*mixer.Mixer)
	onStart    func(voice.Info)
	onEnd      func(voice.Info)
}

func defaultConfig() config {
	return config{
		sampleRate: DefaultSampleRate,
		backend:    audio.BackendEbiten,
		strategy:   voice.OldestFirst,
		maxVoices:  voice.MaxVoices,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithSampleRate(rate int) Option {
	return func(cfg *config) {
		if rate > 0 {
			cfg.sampleRate = rate
		}
	}
}

// WithBackend picks the output device used by a Player.
func WithBackend(b audio.Backend) Option {
	return func(cfg *config) {
		cfg.backend = b
	}
}

func WithStealStrategy(s voice.StealStrategy) Option {
	return func(cfg *config) {
		cfg.strategy = s
	}
}

func WithMaxVoices(n int) Option {
	return func(cfg *config) {
		cfg.maxVoices = n
	}
}

// WithOnePoleFilters trades the per-voice state-variable filter for a
// cheaper one-pole pair.
func WithOnePoleFilters() Option {
	return func(cfg *config) {
		cfg.onePole = true
	}
}

// WithRand makes noise and grain jitter reproducible.
func WithRand(r synth.Rand) Option {
	return func(cfg *config) {
		cfg.rand = r
	}
}

// WithPresets resolves the preset names used by notes.
func WithPresets(p request.PresetSource) Option {
	return func(cfg *config) {
		cfg.presets = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *config) {
		cfg.sampleTap = tap
	}
}

// WithMixer configures the channel mixer of every new session.
func WithMixer(fn func(*mixer.Mixer)) Option {
	return func(cfg *config) {
		cfg.mix = append(cfg.mix, fn)
	}
}

// WithVoiceHooks observes voices starting and ending. The hooks run on the
// rendering goroutine.
func WithVoiceHooks(onStart, onEnd func(voice.Info)) Option {
	return func(cfg *config) {
		cfg.onStart = onStart
		cfg.onEnd = onEnd
	}
}
