// Package synth holds the oscillator library: one pure sample function per
// synthesis kind, driven by a per-voice State that carries phase and noise
// memory between samples.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/lfo"
)

const (
	maxPartials = 16
	grainSlots  = 16
)

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("unknown synthesis type")

// Kind tags an oscillator variant.
type Kind int

const (
	KindSine Kind = iota
	KindSquare
	KindSawtooth
	KindTriangle
	KindWhiteNoise
	KindPinkNoise
	KindBrownNoise
	KindFM
	KindGranular
	KindWavetable
	KindKick
	KindSnare
	KindHiHat
	KindCymbal
	KindZap
	KindSwoosh
	KindChime
	KindBurst
	KindPad
	KindTexture
	KindDrone

	numKinds
)

var kindNames = [numKinds]string{
	"sine", "square", "sawtooth", "triangle",
	"white_noise", "pink_noise", "brown_noise",
	"fm", "granular", "wavetable",
	"kick", "snare", "hihat", "cymbal",
	"zap", "swoosh", "chime", "burst",
	"pad", "texture", "drone",
}

var kindAliases = map[string]Kind{
	"saw":       KindSawtooth,
	"noise":     KindWhiteNoise,
	"white":     KindWhiteNoise,
	"pink":      KindPinkNoise,
	"brown":     KindBrownNoise,
	"hi_hat":    KindHiHat,
	"bass_drum": KindKick,
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every synthesis kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind maps a type string to its Kind. Case, hyphens and spaces are
// ignored ("Hi-Hat" == "hihat").
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for i, name := range kindNames {
		if key == name {
			return Kind(i), nil
		}
	}
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Oscillator is the closed set of synthesis variants.
type Oscillator interface {
	Kind() Kind
	sample(c *Context) float64
}

// Default returns the variant for kind with its knobs at their defaults.
func Default(kind Kind) Oscillator {
	switch kind {
	case KindSine:
		return Sine{}
	case KindSquare:
		return Square{PulseWidth: 0.5}
	case KindSawtooth:
		return Sawtooth{}
	case KindTriangle:
		return Triangle{}
	case KindWhiteNoise:
		return Noise{Color: White}
	case KindPinkNoise:
		return Noise{Color: Pink}
	case KindBrownNoise:
		return Noise{Color: Brown}
	case KindFM:
		return FM{Ratio: 2, Index: 2}
	case KindGranular:
		return Granular{GrainSize: 0.05, Overlap: 0.5, Density: 0.8}
	case KindWavetable:
		return Wavetable{Position: 0, MorphRate: 0.2}
	case KindKick:
		return Kick{Punch: 0.7, Decay: 0.5}
	case KindSnare:
		return Snare{Snap: 0.6, Tone: 0.5}
	case KindHiHat:
		return HiHat{Decay: 0.3, Metallic: 0.6}
	case KindCymbal:
		return Cymbal{Size: 0.6, Brightness: 0.6}
	case KindZap:
		return Zap{Energy: 0.7, Sweep: 0.8}
	case KindSwoosh:
		return Swoosh{Direction: 1, Resonance: 0.4}
	case KindChime:
		return Chime{Partials: 5, Inharmonicity: 0.3, Decay: 2}
	case KindBurst:
		return Burst{Shape: 0, Width: 0.05}
	case KindPad:
		return Pad{Warmth: 0.6, Evolution: 0.4, Movement: 0.3}
	case KindTexture:
		return Texture{Roughness: 0.5, Tilt: 0}
	case KindDrone:
		return Drone{Detune: 0.3, Modulation: 0.3}
	}
	return Sine{}
}

// Rand is the randomness source for noise and grain jitter.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// State is the per-voice memory carried from one sample to the next.
type State struct {
	Phase     float64 // cycles of the voice frequency, [0, 1)
	ModPhase  float64 // FM modulator, cycles
	BodyPhase float64 // swept percussion body, cycles

	partials [maxPartials]float64
	pink     [3]float64
	brown    float64

	noiseHP    filter.OnePole
	noiseLP    filter.OnePole
	noiseReady bool

	svf    *filter.SVF
	morph  *lfo.LFO
	evolve *lfo.LFO
	move   *lfo.LFO

	jitter [grainSlots]float64
	gate   [grainSlots]float64
	seeded bool
}

// Reset clears the state for reuse by a new voice.
func (s *State) Reset() {
	*s = State{}
}

// Context is what a variant sees for one sample.
type Context struct {
	T          float64 // seconds since the voice started
	Freq       float64
	Duration   float64
	SampleRate float64
	Rand       Rand
	State      *State
}

func (c *Context) dt() float64 {
	if c.SampleRate > 0 {
		return 1 / c.SampleRate
	}
	return 1.0 / 44100
}

func (c *Context) white() float64 {
	r := c.Rand
	if r == nil {
		r = globalRand{}
	}
	return r.Float64()*2 - 1
}

// partial advances and returns the phase of partial i running at freq Hz.
func (c *Context) partial(i int, freq float64) float64 {
	s := c.State
	if i < 0 || i >= maxPartials {
		return 0
	}
	s.partials[i] = wrap(s.partials[i] + freq*c.dt())
	return s.partials[i]
}

// coloredNoise returns white noise through the voice's one-pole pair. The
// corners are fixed on first use.
func (c *Context) coloredNoise(hpCutoff, lpCutoff float64) (high, low float64) {
	s := c.State
	if !s.noiseReady {
		sr := c.SampleRate
		if !(sr > 0) {
			sr = 44100
		}
		s.noiseHP.SetCutoff(hpCutoff, sr)
		s.noiseLP.SetCutoff(lpCutoff, sr)
		s.noiseReady = true
	}
	w := c.white()
	return s.noiseHP.Highpass(w), s.noiseLP.Lowpass(w)
}

func (c *Context) state() *State {
	if c.State == nil {
		c.State = &State{}
	}
	return c.State
}

// Sample advances the voice phase by one sample period and returns the raw
// oscillator output at c.T. Non-finite results are replaced by silence.
func Sample(osc Oscillator, c *Context) float64 {
	if osc == nil || c == nil {
		return 0
	}
	s := c.state()
	s.Phase = wrap(s.Phase + c.Freq*c.dt())
	v := osc.sample(c)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Params describes one sound. Treat it as immutable once handed to a voice;
// Clone before mutating a shared value.
type Params struct {
	Osc       Oscillator
	Frequency float64
	Amplitude float64
	Duration  float64
	Envelope  envelope.Params
	Filter    *filter.Params
	Effects   []effects.Spec
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	out := p
	if p.Filter != nil {
		f := *p.Filter
		out.Filter = &f
	}
	if p.Effects != nil {
		out.Effects = append([]effects.Spec(nil), p.Effects...)
	}
	return out
}

// Kind reports the oscillator kind, sine when unset.
func (p Params) Kind() Kind {
	if p.Osc == nil {
		return KindSine
	}
	return p.Osc.Kind()
}

// wrap folds a phase into [0, 1).
func wrap(phase float64) float64 {
	phase -= math.Floor(phase)
	if phase >= 1 {
		phase = 0
	}
	return phase
}

func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sinCycles(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}
