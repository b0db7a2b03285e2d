package muse

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/mixer"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

// Session renders voices through the channel mixer as one mono stream. It
// ends once nothing is sounding or scheduled and the mixer's effect tails
// have rung out. A Session is not safe for concurrent use.
type Session struct {
	manager *voice.Manager
	mixer   *mixer.Mixer
	presets request.PresetSource
	logger  *slog.Logger

	frame   []float64 // one sample per channel
	idleFor int       // samples rendered with nothing sounding
	peak    float64
}

func NewSession(opts ...Option) *Session {
	return newSession(newConfig(opts))
}

func newSession(cfg config) *Session {
	vopts := []voice.Option{
		voice.WithMaxVoices(cfg.maxVoices),
		voice.WithStealStrategy(cfg.strategy),
		voice.WithLogger(cfg.logger),
		voice.WithHooks(cfg.onStart, cfg.onEnd),
	}
	if cfg.rand != nil {
		vopts = append(vopts, voice.WithRand(cfg.rand))
	}
	if cfg.onePole {
		vopts = append(vopts, voice.WithOnePoleFilters())
	}
	s := &Session{
		manager: voice.NewManager(cfg.sampleRate, vopts...),
		mixer:   mixer.New(cfg.sampleRate),
		presets: cfg.presets,
		logger:  cfg.logger,
		frame:   make([]float64, request.MaxChannel+1),
	}
	for _, fn := range cfg.mix {
		fn(s.mixer)
	}
	return s
}

func (s *Session) SampleRate() int { return s.manager.SampleRate() }

// Mixer exposes the channel mixer for configuration.
func (s *Session) Mixer() *mixer.Mixer { return s.mixer }

// Clock is the time of the next sample, in seconds.
func (s *Session) Clock() float64 { return s.manager.Clock() }

// Play starts req now and returns the voice id. A channel outside
// 0..request.MaxChannel is clamped into range.
func (s *Session) Play(req voice.Request) uint64 {
	s.idleFor = 0
	return s.manager.Allocate(s.onFrame(req))
}

// Schedule starts req at the absolute session time at, in seconds.
func (s *Session) Schedule(at float64, req voice.Request) bool {
	if !s.manager.Schedule(at, s.onFrame(req)) {
		return false
	}
	s.idleFor = 0
	return true
}

// PlayNotes validates every note and, only if all are valid, schedules them
// relative to the current clock.
func (s *Session) PlayNotes(notes []request.Note) error {
	if err := request.ValidateAll(notes); err != nil {
		return err
	}
	reqs := make([]voice.Request, len(notes))
	var errs []error
	for i := range notes {
		req, err := notes[i].Request(s.presets)
		if err != nil {
			errs = append(errs, fmt.Errorf("note %d: %w", i, err))
			continue
		}
		reqs[i] = req
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	now := s.Clock()
	for i, req := range reqs {
		s.Schedule(now+notes[i].Start, req)
	}
	s.logger.Debug("notes scheduled", "count", len(notes), "at", now)
	return nil
}

func (s *Session) Release(id uint64) bool { return s.manager.Release(id) }

func (s *Session) ReleaseNote(note, channel int) int {
	return s.manager.ReleaseNote(note, s.frameChannel(channel))
}

// onFrame clamps req's channel into the mix frame.
func (s *Session) onFrame(req voice.Request) voice.Request {
	if c := s.frameChannel(req.Channel); c != req.Channel {
		s.logger.Warn("channel out of range; clamped", "channel", req.Channel, "to", c)
		req.Channel = c
	}
	return req
}

func (s *Session) frameChannel(channel int) int {
	return min(max(channel, 0), len(s.frame)-1)
}

func (s *Session) ReleaseAll() { s.manager.ReleaseAll() }

// Finished reports whether the stream has ended.
func (s *Session) Finished() bool {
	return s.manager.Idle() && s.idleFor >= s.tailSamples()
}

func (s *Session) tailSamples() int {
	return int(math.Ceil(s.mixer.TailSeconds() * float64(s.SampleRate())))
}

// NextSample renders one sample. It returns false once the session has
// finished.
func (s *Session) NextSample() (float64, bool) {
	if s.Finished() {
		return 0, false
	}
	s.manager.NextFrame(s.frame)
	x := s.mixer.MixFrame(s.frame)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		s.logger.Warn("mixer produced non-finite sample", "clock", s.Clock())
		s.mixer.Reset()
		x = 0
	}
	if s.manager.Idle() {
		s.idleFor++
	} else {
		s.idleFor = 0
	}
	s.peak = max(s.peak, math.Abs(x))
	return x, true
}

// Samples yields the remaining samples until the session finishes. The
// sequence consumes the session and cannot be restarted.
func (s *Session) Samples() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for {
			x, ok := s.NextSample()
			if !ok || !yield(x) {
				return
			}
		}
	}
}

// Process fills dst with samples, padding with silence once finished.
func (s *Session) Process(dst []float32) {
	for i := range dst {
		x, _ := s.NextSample()
		dst[i] = float32(x)
	}
}

// TakePeak returns the highest absolute sample since the previous call.
func (s *Session) TakePeak() float64 {
	p := s.peak
	s.peak = 0
	return p
}

func (s *Session) ActiveVoices() int { return s.manager.ActiveCount() }

func (s *Session) Voices() []voice.Info { return s.manager.Voices() }

func (s *Session) Steals() uint64 { return s.manager.Steals() }

// Remaining estimates the seconds left, effect tails included.
func (s *Session) Remaining() float64 {
	if s.Finished() {
		return 0
	}
	rem := s.manager.Remaining() + s.mixer.TailSeconds()
	if s.manager.Idle() {
		rem = float64(s.tailSamples()-s.idleFor) / float64(s.SampleRate())
	}
	return max(rem, 0)
}

// trigger plays req now, or start seconds from now.
func (s *Session) trigger(start float64, req voice.Request) uint64 {
	if start > 0 {
		s.Schedule(s.Clock()+start, req)
		return 0
	}
	return s.Play(req)
}
