package muse

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alextrzyna/mcp-muse-sub000/internal/audio"
	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

// PlaybackEvent carries voice and playback events from Watch().
type PlaybackEvent struct {
	Kind    int // EventVoiceStarted, EventVoiceEnded or EventPlaybackEnded
	VoiceID uint64
	Voice   voice.Info
}

const (
	EventVoiceStarted int = iota
	EventVoiceEnded
	EventPlaybackEnded
)

var ErrNotPlaying = errors.New("nothing is playing")

// Stats is a snapshot of the current playback.
type Stats struct {
	Elapsed   time.Duration
	Remaining time.Duration
	Active    int
	MaxVoices int
	Steals    uint64
	Peak      float64
	Voices    []voice.Info
	Done      bool
}

type Player struct {
	mu       sync.Mutex
	cfg      config
	sink     audio.Sink
	current  *playback
	volume   atomic.Uint64 // float64 bits
	masterEQ *effects.EQ5Band

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

// playback wraps a session and implements SampleSource + FinishingSource.
// Its mutex serialises the audio thread against commands from other
// goroutines.
type playback struct {
	mu       sync.Mutex
	session  *Session
	finished atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
	player   *Player
}

func (pb *playback) Process(dst []float32) {
	pb.mu.Lock()
	pb.session.Process(dst)
	ended := pb.session.Finished()
	pb.mu.Unlock()

	p := pb.player
	gain := p.MasterVolume()
	for i, x := range dst {
		dst[i] = float32(p.masterEQ.Process(float64(x)) * gain)
	}
	if p.cfg.sampleTap != nil {
		p.cfg.sampleTap(dst)
	}
	if ended && !pb.finished.Swap(true) {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
		pb.signalDone()
	}
}

func (pb *playback) Finished() bool {
	return pb.finished.Load()
}

func (pb *playback) signalDone() {
	pb.doneOnce.Do(func() { close(pb.done) })
}

func NewPlayer(opts ...Option) (*Player, error) {
	cfg := newConfig(opts)
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	p := &Player{
		cfg:      cfg,
		masterEQ: effects.NewEQ5Band(cfg.sampleRate),
	}
	p.volume.Store(math.Float64bits(1))
	return p, nil
}

func (p *Player) SampleRate() int { return p.cfg.sampleRate }

// Play replaces whatever is playing with notes. Every note is validated
// first; nothing changes if any is invalid.
func (p *Player) Play(notes []request.Note) error {
	return p.start(func(s *Session) error {
		return s.PlayNotes(notes)
	})
}

// Trigger starts n on the current playback, or on a new one when nothing is
// playing. Notes with a start time are scheduled relative to now and report
// id 0.
func (p *Player) Trigger(n request.Note) (uint64, error) {
	req, err := n.Request(p.cfg.presets)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()

	if pb != nil && !pb.Finished() {
		pb.mu.Lock()
		live := !pb.session.Finished()
		var id uint64
		if live {
			id = pb.session.trigger(n.Start, req)
		}
		pb.mu.Unlock()
		if live {
			return id, nil
		}
	}
	var id uint64
	err = p.start(func(s *Session) error {
		id = s.trigger(n.Start, req)
		return nil
	})
	return id, err
}

func (p *Player) start(load func(*Session) error) error {
	cfg := p.cfg
	cfg.onStart = func(info voice.Info) {
		p.sendEvent(PlaybackEvent{Kind: EventVoiceStarted, VoiceID: info.ID, Voice: info})
		if p.cfg.onStart != nil {
			p.cfg.onStart(info)
		}
	}
	cfg.onEnd = func(info voice.Info) {
		p.sendEvent(PlaybackEvent{Kind: EventVoiceEnded, VoiceID: info.ID, Voice: info})
		if p.cfg.onEnd != nil {
			p.cfg.onEnd(info)
		}
	}
	session := newSession(cfg)
	if err := load(session); err != nil {
		return err
	}
	pb := &playback{
		session: session,
		done:    make(chan struct{}),
		player:  p,
	}
	sink, err := audio.Open(cfg.backend, cfg.sampleRate, pb)
	if err != nil {
		return err
	}

	p.mu.Lock()
	oldSink, old := p.sink, p.current
	p.sink, p.current = sink, pb
	p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced.
	if oldSink != nil {
		_ = oldSink.Stop()
	}
	if old != nil {
		old.signalDone()
	}
	cfg.logger.Debug("playback started", "backend", cfg.backend, "voices", session.ActiveVoices())
	sink.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Release moves voice id into its release phase.
func (p *Player) Release(id uint64) bool {
	return p.withSession(func(s *Session) bool { return s.Release(id) })
}

func (p *Player) ReleaseNote(note, channel int) int {
	var n int
	p.withSession(func(s *Session) bool {
		n = s.ReleaseNote(note, channel)
		return n > 0
	})
	return n
}

func (p *Player) ReleaseAll() {
	p.withSession(func(s *Session) bool {
		s.ReleaseAll()
		return true
	})
}

func (p *Player) withSession(fn func(*Session) bool) bool {
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()
	if pb == nil {
		return false
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return fn(pb.session)
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sink != nil {
		p.sink.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sink != nil {
		p.sink.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	sink, pb := p.sink, p.current
	p.sink, p.current = nil, nil
	p.mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Stop()
	if pb != nil && !pb.finished.Swap(true) {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	}
	if pb != nil {
		pb.signalDone()
	}
	return err
}

// Wait blocks until the current playback ends.
// Wait returns immediately if no playback is active or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	pb := p.current
	p.mu.Unlock()
	if pb != nil {
		<-pb.done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventVoiceStarted: a voice began sounding (stolen voices included)
//   - EventVoiceEnded: a voice finished or was stolen
//   - EventPlaybackEnded: every voice and effect tail has finished
//
// The channel is buffered (cap 64); receive in a goroutine to avoid losing
// events. Only the most recent Watch() channel receives events; call Watch
// before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 64)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 || math.IsNaN(volume) {
		volume = 0
	}
	p.volume.Store(math.Float64bits(volume))
}

func (p *Player) MasterVolume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float64) {
	p.masterEQ.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float64 {
	return p.masterEQ.Gain(band)
}

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() time.Duration {
	p.mu.Lock()
	s := p.sink
	p.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.Position()
}

// Stats snapshots the current playback. The peak is reset by each call.
func (p *Player) Stats() (Stats, error) {
	p.mu.Lock()
	pb, sink := p.current, p.sink
	p.mu.Unlock()
	if pb == nil {
		return Stats{Done: true}, ErrNotPlaying
	}
	pb.mu.Lock()
	s := pb.session
	st := Stats{
		Remaining: time.Duration(s.Remaining() * float64(time.Second)),
		Active:    s.ActiveVoices(),
		MaxVoices: p.cfg.maxVoices,
		Steals:    s.Steals(),
		Peak:      s.TakePeak() * p.MasterVolume(),
		Voices:    s.Voices(),
	}
	pb.mu.Unlock()
	st.Done = pb.Finished()
	if sink != nil {
		st.Elapsed = sink.Position()
	}
	return st, nil
}
