package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/envelope"
	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

func ptr[T any](v T) *T { return &v }

func TestDecodeFlatObject(t *testing.T) {
	doc := `{"notes": [
		{"note": 60, "velocity": 100, "channel": 9, "start_time": 0.5, "duration": 0.25,
		 "synth_type": "kick", "synth_punch": 0.9, "synth_decay_time": 0.2, "reverb": 0.3}
	]}`
	notes, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notes", len(notes))
	}
	n := notes[0]
	if *n.Note != 60 || n.Channel != 9 || n.Start != 0.5 || n.Type != "kick" {
		t.Fatalf("decoded %+v", n)
	}
	if n.Knobs.Punch == nil || *n.Knobs.Punch != 0.9 {
		t.Fatal("knob synth_punch not decoded")
	}
}

func TestDecodeBareArray(t *testing.T) {
	notes, err := Decode(strings.NewReader(`[{"synth_type":"sine","duration":1},{"note":64,"duration":2}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 || notes[1].Duration != 2 {
		t.Fatalf("decoded %+v", notes)
	}
	if _, err := Decode(strings.NewReader(`{"notes": 3}`)); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestMarshalKeepsKnobsFlat(t *testing.T) {
	n := Note{Duration: 1, Type: "chime", Knobs: Knobs{Partials: ptr(7)}}
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON %s: %v", data, err)
	}
	if raw["synth_partials"] != float64(7) || raw["synth_type"] != "chime" {
		t.Fatalf("flat object = %s", data)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		note  Note
		field string
	}{
		{"valid", Note{Duration: 1, Type: "sine", Frequency: ptr(440.0)}, ""},
		{"unknown type", Note{Duration: 1, Type: "theremin"}, "synth_type"},
		{"low frequency", Note{Duration: 1, Frequency: ptr(5.0)}, "synth_frequency"},
		{"high frequency", Note{Duration: 1, Frequency: ptr(25000.0)}, "synth_frequency"},
		{"amplitude", Note{Duration: 1, Amplitude: ptr(1.5)}, "synth_amplitude"},
		{"attack", Note{Duration: 1, Attack: ptr(6.0)}, "synth_attack"},
		{"release", Note{Duration: 1, Release: ptr(11.0)}, "synth_release"},
		{"cutoff", Note{Duration: 1, FilterCutoff: ptr(10.0)}, "synth_filter_cutoff"},
		{"filter type", Note{Duration: 1, FilterType: "comb"}, "synth_filter_type"},
		{"note", Note{Duration: 1, Note: ptr(128)}, "note"},
		{"velocity", Note{Duration: 1, Velocity: ptr(-1)}, "velocity"},
		{"channel", Note{Duration: 1, Channel: 16}, "channel"},
		{"start", Note{Duration: 1, Start: -1}, "start_time"},
		{"nan amplitude", Note{Duration: 1, Amplitude: ptr(math.NaN())}, "synth_amplitude"},
		{"knob", Note{Duration: 1, Type: "kick", Knobs: Knobs{Punch: ptr(2.0)}}, "synth_punch"},
		{"partials", Note{Duration: 1, Type: "chime", Knobs: Knobs{Partials: ptr(40)}}, "synth_partials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.note.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestValidateAllIndexesErrors(t *testing.T) {
	notes := []Note{{Duration: 1}, {Duration: 1, Type: "bogus"}, {Duration: 1, Channel: 99}}
	err := ValidateAll(notes)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "note 1: synth_type") || !strings.Contains(msg, "note 2: channel") {
		t.Fatalf("error = %q", msg)
	}
}

func TestToParamsFromMIDI(t *testing.T) {
	n := Note{Note: ptr(69), Velocity: ptr(127), Duration: 2}
	p, err := n.ToParams(nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind() != synth.KindSine || p.Frequency != 440 || p.Amplitude != DefaultAmplitude || p.Duration != 2 {
		t.Fatalf("params %+v", p)
	}
	n.Velocity = ptr(0)
	p, _ = n.ToParams(nil)
	if p.Amplitude != 0 {
		t.Fatalf("velocity 0 amplitude = %f", p.Amplitude)
	}
}

func TestToParamsSynthFields(t *testing.T) {
	n := Note{
		Duration:     0.5,
		Type:         "fm",
		Frequency:    ptr(220.0),
		Amplitude:    ptr(0.4),
		Attack:       ptr(0.2),
		Sustain:      ptr(0.3),
		FilterType:   "highpass",
		FilterCutoff: ptr(500.0),
		Delay:        ptr(0.5),
		DelayTime:    ptr(0.125),
		Reverb:       ptr(0.2),
		Knobs:        Knobs{ModIndex: ptr(4.0)},
	}
	p, err := n.ToParams(nil)
	if err != nil {
		t.Fatal(err)
	}
	fm, ok := p.Osc.(synth.FM)
	if !ok || fm.Index != 4 {
		t.Fatalf("oscillator %#v", p.Osc)
	}
	if p.Envelope.Attack != 0.2 || p.Envelope.Sustain != 0.3 || p.Envelope.Release != envelope.DefaultParams().Release {
		t.Fatalf("envelope %+v", p.Envelope)
	}
	if p.Filter == nil || p.Filter.Type != filter.HighPass || p.Filter.Cutoff != 500 {
		t.Fatalf("filter %+v", p.Filter)
	}
	if len(p.Effects) != 2 || p.Effects[0].Kind != effects.KindDelay || p.Effects[0].Time != 0.125 || p.Effects[1].Kind != effects.KindReverb {
		t.Fatalf("effects %+v", p.Effects)
	}
}

func TestPercussionKeepsOwnPitch(t *testing.T) {
	p, err := (&Note{Type: "snare", Duration: 0.3}).ToParams(nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Frequency != 0 {
		t.Fatalf("snare frequency = %f, want 0 (oscillator default)", p.Frequency)
	}
}

type fakePresets map[string]synth.Params

func (f fakePresets) Params(name, variation string) (synth.Params, error) {
	p, ok := f[name]
	if !ok {
		return synth.Params{}, fmt.Errorf("no preset %q", name)
	}
	if variation == "loud" {
		p.Amplitude = 1
	}
	return p, nil
}

func TestToParamsPreset(t *testing.T) {
	lib := fakePresets{"bass": {
		Osc:       synth.Sawtooth{},
		Frequency: 55,
		Amplitude: 0.6,
		Duration:  0.8,
		Envelope:  envelope.Params{Attack: 0.01, Sustain: 1},
		Filter:    &filter.Params{Type: filter.LowPass, Cutoff: 400, Resonance: 1, Intensity: 1},
	}}
	p, err := (&Note{Preset: "bass", Variation: "loud", FilterCutoff: ptr(900.0)}).ToParams(lib)
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind() != synth.KindSawtooth || p.Frequency != 55 || p.Amplitude != 1 || p.Duration != 0.8 {
		t.Fatalf("params %+v", p)
	}
	if p.Filter.Cutoff != 900 || lib["bass"].Filter.Cutoff != 400 {
		t.Fatal("filter override leaked into the library")
	}

	if _, err := (&Note{Preset: "lead"}).ToParams(lib); err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if _, err := (&Note{Preset: "bass"}).ToParams(nil); !errors.Is(err, ErrNoPresets) {
		t.Fatalf("err = %v, want ErrNoPresets", err)
	}
}

func TestRequest(t *testing.T) {
	req, err := (&Note{Note: ptr(60), Channel: 3, Priority: ptr(90), Duration: 1}).Request(nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Note != 60 || req.Channel != 3 || req.Priority != 90 {
		t.Fatalf("request %+v", req)
	}
	req, _ = (&Note{Duration: 1}).Request(nil)
	if req.Note != voice.NoNote || req.Priority != DefaultPriority {
		t.Fatalf("defaults %+v", req)
	}
}

func TestMIDIFrequency(t *testing.T) {
	if f := MIDIFrequency(69); f != 440 {
		t.Fatalf("A4 = %f", f)
	}
	if f := MIDIFrequency(81); math.Abs(f-880) > 1e-9 {
		t.Fatalf("A5 = %f", f)
	}
}
