// Package request decodes and validates note descriptors and turns them into
// synth.Params.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
)

// Boundary ranges.
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
	MaxDuration  = 600.0
	MaxChannel   = 15
	MaxMIDI      = 127
	MaxPartials  = 16
)

// DefaultDuration is used when a note gives no duration.
const DefaultDuration = 1.0

// Note is one input event. MIDI fields and synthesis fields are both
// optional; pointer fields distinguish "absent" from zero.
type Note struct {
	Note     *int    `json:"note,omitempty"`
	Velocity *int    `json:"velocity,omitempty"`
	Channel  int     `json:"channel,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Start    float64 `json:"start_time"`
	Duration float64 `json:"duration"`

	Preset    string `json:"preset,omitempty"`
	Variation string `json:"variation,omitempty"`

	Type      string   `json:"synth_type,omitempty"`
	Frequency *float64 `json:"synth_frequency,omitempty"`
	Amplitude *float64 `json:"synth_amplitude,omitempty"`
	Attack    *float64 `json:"synth_attack,omitempty"`
	Decay     *float64 `json:"synth_decay,omitempty"`
	Sustain   *float64 `json:"synth_sustain,omitempty"`
	Release   *float64 `json:"synth_release,omitempty"`

	FilterType      string   `json:"synth_filter_type,omitempty"`
	FilterCutoff    *float64 `json:"synth_filter_cutoff,omitempty"`
	FilterResonance *float64 `json:"synth_filter_resonance,omitempty"`

	Reverb     *float64 `json:"reverb,omitempty"`
	Delay      *float64 `json:"delay,omitempty"`
	DelayTime  *float64 `json:"delay_time,omitempty"`
	Chorus     *float64 `json:"chorus,omitempty"`
	Compressor *float64 `json:"compressor,omitempty"`
	Distortion *float64 `json:"distortion,omitempty"`

	Knobs Knobs `json:"-"`
}

// Knobs are the variant-specific synthesis parameters. They are decoded from
// the same flat object as Note.
type Knobs struct {
	PulseWidth    *float64 `json:"synth_pulse_width,omitempty"`
	ModulatorFreq *float64 `json:"synth_modulator_freq,omitempty"`
	ModRatio      *float64 `json:"synth_mod_ratio,omitempty"`
	ModIndex      *float64 `json:"synth_mod_index,omitempty"`
	GrainSize     *float64 `json:"synth_grain_size,omitempty"`
	GrainOverlap  *float64 `json:"synth_grain_overlap,omitempty"`
	GrainDensity  *float64 `json:"synth_grain_density,omitempty"`
	Position      *float64 `json:"synth_wavetable_position,omitempty"`
	MorphRate     *float64 `json:"synth_morph_rate,omitempty"`
	Punch         *float64 `json:"synth_punch,omitempty"`
	Snap          *float64 `json:"synth_snap,omitempty"`
	Tone          *float64 `json:"synth_tone,omitempty"`
	DecayTime     *float64 `json:"synth_decay_time,omitempty"`
	Metallic      *float64 `json:"synth_metallic,omitempty"`
	Size          *float64 `json:"synth_size,omitempty"`
	Brightness    *float64 `json:"synth_brightness,omitempty"`
	Energy        *float64 `json:"synth_energy,omitempty"`
	Sweep         *float64 `json:"synth_sweep,omitempty"`
	Direction     *float64 `json:"synth_direction,omitempty"`
	Resonance     *float64 `json:"synth_resonance,omitempty"`
	Partials      *int     `json:"synth_partials,omitempty"`
	Inharmonicity *float64 `json:"synth_inharmonicity,omitempty"`
	Shape         *float64 `json:"synth_shape,omitempty"`
	Width         *float64 `json:"synth_width,omitempty"`
	Warmth        *float64 `json:"synth_warmth,omitempty"`
	Evolution     *float64 `json:"synth_evolution,omitempty"`
	Movement      *float64 `json:"synth_movement,omitempty"`
	Roughness     *float64 `json:"synth_roughness,omitempty"`
	Tilt          *float64 `json:"synth_tilt,omitempty"`
	Detune        *float64 `json:"synth_detune,omitempty"`
	Modulation    *float64 `json:"synth_modulation,omitempty"`
}

type noteAlias Note

// UnmarshalJSON decodes the flat object into Note and its Knobs.
func (n *Note) UnmarshalJSON(data []byte) error {
	var a noteAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &a.Knobs); err != nil {
		return err
	}
	*n = Note(a)
	return nil
}

// MarshalJSON writes Note and its Knobs as one flat object.
func (n Note) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(noteAlias(n))
	if err != nil {
		return nil, err
	}
	knobs, err := json.Marshal(n.Knobs)
	if err != nil {
		return nil, err
	}
	if string(knobs) == "{}" {
		return base, nil
	}
	// Splice the two objects: drop base's closing brace and knobs' opening.
	out := append(base[:len(base)-1:len(base)-1], ',')
	return append(out, knobs[1:]...), nil
}

// Sequence is the document form accepted by Decode.
type Sequence struct {
	Notes []Note `json:"notes"`
}

// Decode reads a Sequence, or a bare array of notes, from r.
func Decode(r io.Reader) ([]Note, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	var seq Sequence
	if err := json.Unmarshal(data, &seq); err == nil && seq.Notes != nil {
		return seq.Notes, nil
	}
	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

// ValidationError reports one out-of-range or malformed field.
type ValidationError struct {
	Index   int // position in a batch, -1 for a single note
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("note %d: %s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Index: -1, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateAll validates every note and joins the failures, each tagged with
// its index.
func ValidateAll(notes []Note) error {
	var errs []error
	for i := range notes {
		if err := notes[i].Validate(); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate reports the first field outside its documented range.
func (n *Note) Validate() error {
	if err := checkInt("note", n.Note, 0, MaxMIDI); err != nil {
		return err
	}
	if err := checkInt("velocity", n.Velocity, 0, MaxMIDI); err != nil {
		return err
	}
	if n.Channel < 0 || n.Channel > MaxChannel {
		return invalid("channel", "%d out of range [0, %d]", n.Channel, MaxChannel)
	}
	if err := checkInt("priority", n.Priority, 0, 255); err != nil {
		return err
	}
	if !(n.Start >= 0) || math.IsInf(n.Start, 0) {
		return invalid("start_time", "must be a non-negative number of seconds")
	}
	if !(n.Duration >= 0 && n.Duration <= MaxDuration) {
		return invalid("duration", "%.3f out of range [0, %.0f]", n.Duration, MaxDuration)
	}
	if n.Type != "" {
		if _, err := synth.ParseKind(n.Type); err != nil {
			return invalid("synth_type", "%v", err)
		}
	}
	checks := []struct {
		field  string
		v      *float64
		lo, hi float64
	}{
		{"synth_frequency", n.Frequency, MinFrequency, MaxFrequency},
		{"synth_amplitude", n.Amplitude, 0, 1},
		{"synth_attack", n.Attack, 0, envelope.MaxAttack},
		{"synth_decay", n.Decay, 0, envelope.MaxDecay},
		{"synth_sustain", n.Sustain, 0, 1},
		{"synth_release", n.Release, 0, envelope.MaxRelease},
		{"synth_filter_cutoff", n.FilterCutoff, filter.MinCutoff, filter.MaxCutoff},
		{"synth_filter_resonance", n.FilterResonance, 0, filter.MaxResonance},
		{"reverb", n.Reverb, 0, 1},
		{"delay", n.Delay, 0, 1},
		{"delay_time", n.DelayTime, 0.001, 4},
		{"chorus", n.Chorus, 0, 1},
		{"compressor", n.Compressor, 0, 1},
		{"distortion", n.Distortion, 0, 1},
	}
	for _, c := range checks {
		if err := checkFloat(c.field, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}
	if n.FilterType != "" {
		if _, err := filter.ParseType(n.FilterType); err != nil {
			return invalid("synth_filter_type", "%v", err)
		}
	}
	return n.Knobs.validate()
}

func (k *Knobs) validate() error {
	unit := []struct {
		field string
		v     *float64
	}{
		{"synth_pulse_width", k.PulseWidth},
		{"synth_grain_density", k.GrainDensity},
		{"synth_wavetable_position", k.Position},
		{"synth_punch", k.Punch},
		{"synth_snap", k.Snap},
		{"synth_tone", k.Tone},
		{"synth_metallic", k.Metallic},
		{"synth_size", k.Size},
		{"synth_brightness", k.Brightness},
		{"synth_energy", k.Energy},
		{"synth_sweep", k.Sweep},
		{"synth_resonance", k.Resonance},
		{"synth_inharmonicity", k.Inharmonicity},
		{"synth_shape", k.Shape},
		{"synth_warmth", k.Warmth},
		{"synth_evolution", k.Evolution},
		{"synth_movement", k.Movement},
		{"synth_roughness", k.Roughness},
		{"synth_detune", k.Detune},
		{"synth_modulation", k.Modulation},
	}
	for _, u := range unit {
		if err := checkFloat(u.field, u.v, 0, 1); err != nil {
			return err
		}
	}
	ranged := []struct {
		field  string
		v      *float64
		lo, hi float64
	}{
		{"synth_modulator_freq", k.ModulatorFreq, 0, MaxFrequency},
		{"synth_mod_ratio", k.ModRatio, 0, 32},
		{"synth_mod_index", k.ModIndex, 0, 50},
		{"synth_grain_size", k.GrainSize, 0.005, 1},
		{"synth_grain_overlap", k.GrainOverlap, 0, 0.95},
		{"synth_morph_rate", k.MorphRate, 0, 20},
		{"synth_decay_time", k.DecayTime, 0, 10},
		{"synth_direction", k.Direction, -1, 1},
		{"synth_width", k.Width, 0.001, 2},
		{"synth_tilt", k.Tilt, -1, 1},
	}
	for _, r := range ranged {
		if err := checkFloat(r.field, r.v, r.lo, r.hi); err != nil {
			return err
		}
	}
	return checkInt("synth_partials", k.Partials, 1, MaxPartials)
}

func checkFloat(field string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < lo || *v > hi {
		return invalid(field, "%g out of range [%g, %g]", *v, lo, hi)
	}
	return nil
}

func checkInt(field string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return invalid(field, "%d out of range [%d, %d]", *v, lo, hi)
	}
	return nil
}

// MIDIFrequency converts a MIDI note number to Hz (A4 = 69 = 440 Hz).
func MIDIFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// effectSpecs builds the effect list in a fixed order: distortion,
// compressor, chorus, delay, reverb.
func (n *Note) effectSpecs() []effects.Spec {
	var specs []effects.Spec
	add := func(kind effects.Kind, intensity *float64, tweak func(*effects.Spec)) {
		if intensity == nil || *intensity <= 0 {
			return
		}
		s := effects.DefaultSpec(kind)
		s.Intensity = *intensity
		if tweak != nil {
			tweak(&s)
		}
		specs = append(specs, s)
	}
	add(effects.KindDistortion, n.Distortion, nil)
	add(effects.KindCompressor, n.Compressor, nil)
	add(effects.KindChorus, n.Chorus, nil)
	add(effects.KindDelay, n.Delay, func(s *effects.Spec) {
		if n.DelayTime != nil {
			s.Time = *n.DelayTime
		}
	})
	add(effects.KindReverb, n.Reverb, func(s *effects.Spec) {
		s.WetLevel = 1
	})
	return specs
}
