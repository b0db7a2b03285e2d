// Package voice owns the live voice pool: allocation under a hard voice
// ceiling, stealing, timed starts, per-sample rendering and retirement.
package voice

import (
	"fmt"
	"strings"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
)

// MaxVoices is the default polyphony ceiling.
const MaxVoices = 32

// silence is the envelope level at which a releasing voice is retired.
const silence = 0.001

// NoNote marks a voice that was not started from a note number.
const NoNote = -1

// DefaultPriority is the priority given by NewRequest.
const DefaultPriority = 50

// State is a voice's lifecycle position. It only moves forward.
type State int

const (
	Idle State = iota
	Attack
	Decay
	Sustain
	Release
)

func (s State) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	default:
		return "idle"
	}
}

func stateFor(s envelope.Stage) State {
	switch s {
	case envelope.StageAttack:
		return Attack
	case envelope.StageDecay:
		return Decay
	case envelope.StageSustain:
		return Sustain
	case envelope.StageRelease:
		return Release
	}
	return Idle
}

// StealStrategy picks the victim when the pool is full.
type StealStrategy int

const (
	OldestFirst StealStrategy = iota
	LowestPriority
	LowestVolume
)

func (s StealStrategy) String() string {
	switch s {
	case LowestPriority:
		return "lowest-priority"
	case LowestVolume:
		return "lowest-volume"
	default:
		return "oldest-first"
	}
}

// ParseStealStrategy accepts "oldest", "priority", "volume" and the full
// String forms.
func ParseStealStrategy(s string) (StealStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oldest", "oldest-first", "oldest_first", "":
		return OldestFirst, nil
	case "priority", "lowest-priority", "lowest_priority":
		return LowestPriority, nil
	case "volume", "lowest-volume", "lowest_volume":
		return LowestVolume, nil
	}
	return 0, fmt.Errorf("unknown steal strategy %q", s)
}

// Request asks for a new voice. Build it with NewRequest so Note starts as
// NoNote.
type Request struct {
	Params   synth.Params
	Priority uint8
	Note     int // NoNote when not note-driven
	Channel  int
}

// NewRequest returns a request for p on channel 0 with no note number.
func NewRequest(p synth.Params) Request {
	return Request{Params: p, Priority: DefaultPriority, Note: NoNote}
}

// Voice is one sounding instance. Only the Manager mutates it.
type Voice struct {
	ID        uint64
	State     State
	Params    synth.Params
	Time      float64 // seconds since start
	StartTime float64 // manager clock at start
	Duration  float64
	Envelope  float64 // last computed level
	Priority  uint8
	Note      int
	Channel   int

	env      envelope.Params // fitted to Duration
	osc      synth.State
	ctx      synth.Context
	filter   filter.Processor
	effects  *effects.Chain
	released bool
	relAt    float64
	relLevel float64
}

// Info is a read-only snapshot of a voice.
type Info struct {
	ID        uint64
	State     State
	Kind      synth.Kind
	Note      int
	Channel   int
	Priority  uint8
	StartTime float64
	Time      float64
	Envelope  float64
}

func (v *Voice) info() Info {
	return Info{
		ID:        v.ID,
		State:     v.State,
		Kind:      v.Params.Kind(),
		Note:      v.Note,
		Channel:   v.Channel,
		Priority:  v.Priority,
		StartTime: v.StartTime,
		Time:      v.Time,
		Envelope:  v.Envelope,
	}
}

// release moves the voice into Release from its current level.
func (v *Voice) release() bool {
	if v.State == Idle || v.released {
		return false
	}
	v.released = true
	v.relAt = v.Time
	v.relLevel = v.Envelope
	v.State = Release
	return true
}

// advance renders one sample for the voice and updates its state machine.
// It returns the voice output, already scaled by envelope and amplitude.
func (v *Voice) advance(dt float64) float64 {
	v.Time += dt
	t := v.Time

	var level float64
	if v.released {
		level = envelope.ReleaseFrom(v.relLevel, t-v.relAt, v.env.Release)
	} else {
		level = envelope.Value(t, v.Duration, v.env)
		if next := stateFor(envelope.StageAt(t, v.Duration, v.env)); next > v.State {
			v.State = next
		}
	}
	v.Envelope = level

	v.ctx.T = t
	x := synth.Sample(v.Params.Osc, &v.ctx)
	if v.filter != nil {
		x = v.filter.Process(x)
	}
	x = v.effects.Process(x)
	out := x * level * v.Params.Amplitude

	if t >= v.Duration || (v.State == Release && level <= silence) {
		v.State = Idle
	}
	return out
}
