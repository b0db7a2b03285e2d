package voice

import (
	"log/slog"
	"math"
	"sort"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
)

// Option configures a Manager.
type Option func(*Manager)

// WithMaxVoices overrides the polyphony ceiling.
func WithMaxVoices(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxVoices = n
		}
	}
}

func WithStealStrategy(s StealStrategy) Option {
	return func(m *Manager) { m.strategy = s }
}

// WithRand injects the randomness used by noise and grain jitter.
func WithRand(r synth.Rand) Option {
	return func(m *Manager) { m.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOnePoleFilters swaps the per-voice SVF for the cheaper one-pole
// variant.
func WithOnePoleFilters() Option {
	return func(m *Manager) { m.onePole = true }
}

// WithHooks installs callbacks run when a voice starts and when it is
// purged. They run inside Allocate and NextFrame, so they must not block.
func WithHooks(onStart, onEnd func(Info)) Option {
	return func(m *Manager) {
		m.onStart = onStart
		m.onEnd = onEnd
	}
}

type event struct {
	at  float64
	seq uint64
	req Request
}

// Manager owns every live voice. It is not safe for concurrent use; callers
// that feed it from other goroutines must serialise access.
type Manager struct {
	sampleRate int
	dt         float64
	maxVoices  int
	strategy   StealStrategy
	rand       synth.Rand
	logger     *slog.Logger
	onePole    bool
	onStart    func(Info)
	onEnd      func(Info)

	voices  []*Voice
	pending []event
	seq     uint64
	nextID  uint64
	samples uint64
	steals  uint64
}

func NewManager(sampleRate int, opts ...Option) *Manager {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	m := &Manager{
		sampleRate: sampleRate,
		dt:         1 / float64(sampleRate),
		maxVoices:  MaxVoices,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.voices = make([]*Voice, 0, m.maxVoices)
	return m
}

func (m *Manager) SampleRate() int { return m.sampleRate }

// Clock is the time of the next sample to be rendered, in seconds.
func (m *Manager) Clock() float64 {
	return float64(m.samples) / float64(m.sampleRate)
}

// Allocate starts a voice now and returns its id. A full pool is resolved by
// stealing, never by failing.
func (m *Manager) Allocate(req Request) uint64 {
	if len(m.voices) >= m.maxVoices {
		m.steal(req.Priority)
	}
	m.nextID++
	v := m.newVoice(m.nextID, req)
	m.voices = append(m.voices, v)
	m.logger.Debug("voice started",
		"id", v.ID, "kind", v.Params.Kind(), "freq", v.Params.Frequency,
		"duration", v.Duration, "channel", v.Channel, "active", len(m.voices))
	if m.onStart != nil {
		m.onStart(v.info())
	}
	return v.ID
}

func (m *Manager) newVoice(id uint64, req Request) *Voice {
	p := req.Params.Clone()
	if p.Osc == nil {
		p.Osc = synth.Sine{}
	}
	if math.IsNaN(p.Amplitude) || math.IsInf(p.Amplitude, 0) {
		p.Amplitude = 0
	}
	duration := p.Duration
	if !(duration > 0) || math.IsInf(duration, 0) {
		duration = 0
	}
	v := &Voice{
		ID:        id,
		State:     Attack,
		Params:    p,
		StartTime: m.Clock(),
		Duration:  duration,
		Priority:  req.Priority,
		Note:      req.Note,
		Channel:   req.Channel,
		env:       p.Envelope.Fit(duration),
	}
	v.ctx = synth.Context{
		Freq:       p.Frequency,
		Duration:   duration,
		SampleRate: float64(m.sampleRate),
		Rand:       m.rand,
		State:      &v.osc,
	}
	if p.Filter != nil {
		if m.onePole {
			v.filter = filter.NewSimple(*p.Filter, float64(m.sampleRate))
		} else {
			v.filter = filter.NewSVF(*p.Filter, float64(m.sampleRate))
		}
	}
	if len(p.Effects) > 0 {
		v.effects = effects.FromSpecs(p.Effects, m.sampleRate)
	}
	return v
}

// Schedule queues req to start at the absolute clock time at. Times already
// rendered are rejected.
func (m *Manager) Schedule(at float64, req Request) bool {
	if math.IsNaN(at) || at < m.Clock() {
		m.logger.Debug("schedule rejected", "at", at, "clock", m.Clock())
		return false
	}
	m.seq++
	ev := event{at: at, seq: m.seq, req: req}
	i := sort.Search(len(m.pending), func(i int) bool {
		return m.pending[i].at > at
	})
	m.pending = append(m.pending, event{})
	copy(m.pending[i+1:], m.pending[i:])
	m.pending[i] = ev
	return true
}

// Release moves voice id into Release. It reports whether a sounding voice
// was found.
func (m *Manager) Release(id uint64) bool {
	for _, v := range m.voices {
		if v.ID == id {
			return v.release()
		}
	}
	return false
}

// ReleaseNote releases every sounding voice playing note on channel and
// returns how many were released.
func (m *Manager) ReleaseNote(note, channel int) int {
	if note < 0 {
		return 0
	}
	n := 0
	for _, v := range m.voices {
		if v.Note == note && v.Channel == channel && v.release() {
			n++
		}
	}
	return n
}

func (m *Manager) ReleaseAll() {
	for _, v := range m.voices {
		v.release()
	}
}

// NextSample renders one mono sample.
func (m *Manager) NextSample() float64 {
	return m.NextFrame(nil)
}

// NextFrame renders one sample. When perChannel is non-nil it is cleared and
// each voice's output is also added to perChannel[voice.Channel]; voices on
// channels outside the slice only reach the returned sum.
func (m *Manager) NextFrame(perChannel []float64) float64 {
	clear(perChannel)
	now := m.Clock()
	for len(m.pending) > 0 && m.pending[0].at <= now {
		ev := m.pending[0]
		m.pending = m.pending[1:]
		m.Allocate(ev.req)
	}

	var sum float64
	for _, v := range m.voices {
		out := v.advance(m.dt)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			m.logger.Warn("voice produced non-finite output; retiring", "id", v.ID, "kind", v.Params.Kind())
			v.State = Idle
			continue
		}
		sum += out
		if v.Channel >= 0 && v.Channel < len(perChannel) {
			perChannel[v.Channel] += out
		}
	}
	m.purge()
	m.samples++
	return sum
}

// Process fills dst with consecutive samples.
func (m *Manager) Process(dst []float64) {
	for i := range dst {
		dst[i] = m.NextSample()
	}
}

func (m *Manager) purge() {
	live := m.voices[:0]
	for _, v := range m.voices {
		if v.State != Idle {
			live = append(live, v)
			continue
		}
		m.logger.Debug("voice ended", "id", v.ID, "time", v.Time)
		if m.onEnd != nil {
			m.onEnd(v.info())
		}
	}
	clear(m.voices[len(live):])
	m.voices = live
}

func (m *Manager) ActiveCount() int { return len(m.voices) }

// Pending is the number of scheduled voices not yet started.
func (m *Manager) Pending() int { return len(m.pending) }

// Idle reports whether nothing is sounding or scheduled.
func (m *Manager) Idle() bool {
	return len(m.voices) == 0 && len(m.pending) == 0
}

// Steals counts voices removed to make room.
func (m *Manager) Steals() uint64 { return m.steals }

// Voices returns snapshots of the live voices in start order.
func (m *Manager) Voices() []Info {
	out := make([]Info, len(m.voices))
	for i, v := range m.voices {
		out[i] = v.info()
	}
	return out
}

// Lookup returns the snapshot for id.
func (m *Manager) Lookup(id uint64) (Info, bool) {
	for _, v := range m.voices {
		if v.ID == id {
			return v.info(), true
		}
	}
	return Info{}, false
}

// Remaining estimates how long until every live and scheduled voice has
// finished, in seconds from the current clock.
func (m *Manager) Remaining() float64 {
	var rem float64
	for _, v := range m.voices {
		rem = math.Max(rem, v.Duration-v.Time)
	}
	now := m.Clock()
	for _, ev := range m.pending {
		rem = math.Max(rem, ev.at-now+math.Max(ev.req.Params.Duration, 0))
	}
	return rem
}

// Reset drops every voice and scheduled event and rewinds the clock.
func (m *Manager) Reset() {
	clear(m.voices)
	m.voices = m.voices[:0]
	m.pending = nil
	m.samples = 0
}
