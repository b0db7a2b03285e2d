package request

import (
	"errors"

	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

// Defaults applied when neither the note nor a preset sets a value.
const (
	DefaultFrequency = 440.0
	DefaultAmplitude = 0.7
	DefaultPriority  = voice.DefaultPriority
)

// ErrNoPresets is returned when a note names a preset but no library was
// supplied.
var ErrNoPresets = errors.New("note names a preset but no preset library is loaded")

// PresetSource resolves a preset name and optional variation to params.
type PresetSource interface {
	Params(name, variation string) (synth.Params, error)
}

// ToParams validates n and builds its synth.Params. Explicit note fields
// override the preset, which overrides the defaults.
func (n *Note) ToParams(presets PresetSource) (synth.Params, error) {
	if err := n.Validate(); err != nil {
		return synth.Params{}, err
	}
	p := synth.Params{
		Osc:       synth.Sine{},
		Amplitude: DefaultAmplitude,
		Envelope:  envelope.DefaultParams(),
	}
	if n.Preset != "" {
		if presets == nil {
			return synth.Params{}, ErrNoPresets
		}
		base, err := presets.Params(n.Preset, n.Variation)
		if err != nil {
			return synth.Params{}, invalid("preset", "%v", err)
		}
		p = base.Clone()
	}
	if n.Type != "" {
		kind, _ := synth.ParseKind(n.Type)
		if p.Osc == nil || p.Osc.Kind() != kind {
			p.Osc = synth.Default(kind)
		}
	}
	p.Osc = n.Knobs.apply(p.Osc)

	switch {
	case n.Frequency != nil:
		p.Frequency = *n.Frequency
	case n.Note != nil:
		p.Frequency = MIDIFrequency(*n.Note)
	case p.Frequency == 0 && tonal(p.Kind()):
		p.Frequency = DefaultFrequency
	}

	if n.Amplitude != nil {
		p.Amplitude = *n.Amplitude
	}
	if n.Velocity != nil {
		p.Amplitude *= float64(*n.Velocity) / MaxMIDI
	}

	switch {
	case n.Duration > 0:
		p.Duration = n.Duration
	case p.Duration <= 0:
		p.Duration = DefaultDuration
	}

	setIf(&p.Envelope.Attack, n.Attack)
	setIf(&p.Envelope.Decay, n.Decay)
	setIf(&p.Envelope.Sustain, n.Sustain)
	setIf(&p.Envelope.Release, n.Release)

	if n.FilterType != "" || n.FilterCutoff != nil || n.FilterResonance != nil {
		f := filter.DefaultParams()
		if p.Filter != nil {
			f = *p.Filter
		}
		if n.FilterType != "" {
			f.Type, _ = filter.ParseType(n.FilterType)
		}
		setIf(&f.Cutoff, n.FilterCutoff)
		setIf(&f.Resonance, n.FilterResonance)
		p.Filter = &f
	}

	p.Effects = append(p.Effects, n.effectSpecs()...)
	return p, nil
}

// Request builds the voice request for n.
func (n *Note) Request(presets PresetSource) (voice.Request, error) {
	p, err := n.ToParams(presets)
	if err != nil {
		return voice.Request{}, err
	}
	req := voice.NewRequest(p)
	req.Channel = n.Channel
	if n.Priority != nil {
		req.Priority = uint8(*n.Priority)
	}
	if n.Note != nil {
		req.Note = *n.Note
	}
	return req, nil
}

// End is the time the note stops sounding, in seconds.
func (n *Note) End() float64 {
	d := n.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	return n.Start + d
}

// tonal reports whether kind needs a pitch; percussion and noise fall back
// to their own defaults.
func tonal(kind synth.Kind) bool {
	switch kind {
	case synth.KindWhiteNoise, synth.KindPinkNoise, synth.KindBrownNoise,
		synth.KindKick, synth.KindSnare, synth.KindHiHat, synth.KindCymbal,
		synth.KindSwoosh:
		return false
	}
	return true
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// apply overrides the knobs of osc that k sets.
func (k *Knobs) apply(osc synth.Oscillator) synth.Oscillator {
	switch o := osc.(type) {
	case synth.Square:
		setIf(&o.PulseWidth, k.PulseWidth)
		return o
	case synth.FM:
		setIf(&o.ModulatorFreq, k.ModulatorFreq)
		setIf(&o.Ratio, k.ModRatio)
		setIf(&o.Index, k.ModIndex)
		return o
	case synth.Granular:
		setIf(&o.GrainSize, k.GrainSize)
		setIf(&o.Overlap, k.GrainOverlap)
		setIf(&o.Density, k.GrainDensity)
		return o
	case synth.Wavetable:
		setIf(&o.Position, k.Position)
		setIf(&o.MorphRate, k.MorphRate)
		return o
	case synth.Kick:
		setIf(&o.Punch, k.Punch)
		setIf(&o.Decay, k.DecayTime)
		return o
	case synth.Snare:
		setIf(&o.Snap, k.Snap)
		setIf(&o.Tone, k.Tone)
		return o
	case synth.HiHat:
		setIf(&o.Decay, k.DecayTime)
		setIf(&o.Metallic, k.Metallic)
		return o
	case synth.Cymbal:
		setIf(&o.Size, k.Size)
		setIf(&o.Brightness, k.Brightness)
		return o
	case synth.Zap:
		setIf(&o.Energy, k.Energy)
		setIf(&o.Sweep, k.Sweep)
		return o
	case synth.Swoosh:
		setIf(&o.Direction, k.Direction)
		setIf(&o.Resonance, k.Resonance)
		return o
	case synth.Chime:
		if k.Partials != nil {
			o.Partials = *k.Partials
		}
		setIf(&o.Inharmonicity, k.Inharmonicity)
		setIf(&o.Decay, k.DecayTime)
		return o
	case synth.Burst:
		setIf(&o.Shape, k.Shape)
		setIf(&o.Width, k.Width)
		return o
	case synth.Pad:
		setIf(&o.Warmth, k.Warmth)
		setIf(&o.Evolution, k.Evolution)
		setIf(&o.Movement, k.Movement)
		return o
	case synth.Texture:
		setIf(&o.Roughness, k.Roughness)
		setIf(&o.Tilt, k.Tilt)
		return o
	case synth.Drone:
		setIf(&o.Detune, k.Detune)
		setIf(&o.Modulation, k.Modulation)
		return o
	}
	return osc
}
