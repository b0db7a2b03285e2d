// Package preset provides the read-only table of named sounds and their
// parameter variations.
package preset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/synth"
)

//go:embed presets.json
var builtin []byte

var (
	ErrUnknownPreset    = errors.New("unknown preset")
	ErrUnknownVariation = errors.New("unknown variation")
)

// Override keys a variation may set. Anything else is ignored.
const (
	KeyFilterCutoff    = "filter_cutoff"
	KeyFilterResonance = "filter_resonance"
	KeyAttack          = "attack"
	KeyDecay           = "decay"
	KeySustain         = "sustain"
	KeyRelease         = "release"
	KeyAmplitude       = "amplitude"
)

// Preset is one named sound.
type Preset struct {
	Name        string
	Category    string
	Description string
	Params      synth.Params
	Variations  map[string]map[string]float64
}

// VariationNames lists the preset's variations in order.
func (p *Preset) VariationNames() []string {
	return slices.Sorted(maps.Keys(p.Variations))
}

// Library is immutable after loading and safe for concurrent readers.
type Library struct {
	presets map[string]*Preset
	names   []string
}

// entry is the on-disk form: a note descriptor plus preset metadata.
type entry struct {
	Category    string                        `json:"category"`
	Description string                        `json:"description"`
	Sound       request.Note                  `json:"sound"`
	Variations  map[string]map[string]float64 `json:"variations"`
}

var defaultLibrary = sync.OnceValues(func() (*Library, error) {
	return Load(bytes.NewReader(builtin))
})

// Default returns the built-in library, parsed on first use and shared by
// every caller afterwards.
func Default() (*Library, error) {
	return defaultLibrary()
}

// Load parses a library document: an object mapping preset names to
// entries.
func Load(r io.Reader) (*Library, error) {
	var doc map[string]entry
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	lib := &Library{presets: make(map[string]*Preset, len(doc))}
	for name, e := range doc {
		p, err := e.Sound.ToParams(nil)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		key := normalize(name)
		lib.presets[key] = &Preset{
			Name:        key,
			Category:    e.Category,
			Description: e.Description,
			Params:      p,
			Variations:  e.Variations,
		}
		lib.names = append(lib.names, key)
	}
	slices.Sort(lib.names)
	return lib, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns a copy of the named preset.
func (l *Library) Get(name string) (Preset, bool) {
	p, ok := l.presets[normalize(name)]
	if !ok {
		return Preset{}, false
	}
	out := *p
	out.Params = p.Params.Clone()
	return out, true
}

// Names returns every preset name in sorted order.
func (l *Library) Names() []string {
	return slices.Clone(l.names)
}

// Category returns the names in category, sorted.
func (l *Library) Category(category string) []string {
	var out []string
	for _, name := range l.names {
		if strings.EqualFold(l.presets[name].Category, category) {
			out = append(out, name)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (l *Library) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range l.presets {
		seen[p.Category] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Variation returns the preset's params with the named variation applied.
func (l *Library) Variation(name, variation string) (synth.Params, error) {
	p, ok := l.presets[normalize(name)]
	if !ok {
		return synth.Params{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	params := p.Params.Clone()
	if variation == "" {
		return params, nil
	}
	overrides, ok := p.Variations[normalize(variation)]
	if !ok {
		return synth.Params{}, fmt.Errorf("%w: %q has no %q", ErrUnknownVariation, p.Name, variation)
	}
	return ApplyOverrides(params, overrides), nil
}

// Params implements request.PresetSource.
func (l *Library) Params(name, variation string) (synth.Params, error) {
	return l.Variation(name, variation)
}

// ApplyOverrides returns a copy of p with the documented override keys
// applied. Unknown keys are ignored.
func ApplyOverrides(p synth.Params, overrides map[string]float64) synth.Params {
	p = p.Clone()
	for key, v := range overrides {
		switch key {
		case KeyFilterCutoff:
			ensureFilter(&p).Cutoff = v
		case KeyFilterResonance:
			ensureFilter(&p).Resonance = v
		case KeyAttack:
			p.Envelope.Attack = v
		case KeyDecay:
			p.Envelope.Decay = v
		case KeySustain:
			p.Envelope.Sustain = v
		case KeyRelease:
			p.Envelope.Release = v
		case KeyAmplitude:
			p.Amplitude = v
		}
	}
	return p
}

func ensureFilter(p *synth.Params) *filter.Params {
	if p.Filter == nil {
		f := filter.DefaultParams()
		p.Filter = &f
	}
	return p.Filter
}
