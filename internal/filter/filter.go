// Package filter provides the per-sample filters used by voices, channel
// chains and effects.
package filter

import (
	"fmt"
	"math"
	"strings"
)

// Boundary ranges.
const (
	MinCutoff    = 20.0
	MaxCutoff    = 20000.0
	MinResonance = 0.5
	MaxResonance = 20.0
)

// shelfCorner splits "bass" shelves from "treble" shelves.
const shelfCorner = 1000.0

type Type int

const (
	LowPass Type = iota
	HighPass
	BandPass
	Notch
	Peak
	LowShelf
	HighShelf
)

var typeNames = [...]string{"lowpass", "highpass", "bandpass", "notch", "peak", "lowshelf", "highshelf"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("filter(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType accepts the canonical names plus common short forms
// ("lp", "low_pass", "low-pass").
func ParseType(s string) (Type, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "lp":
		return LowPass, nil
	case "hp":
		return HighPass, nil
	case "bp":
		return BandPass, nil
	}
	for i, name := range typeNames {
		if key == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter type %q", s)
}

// Params configures a filter. Intensity is the dry/wet blend (1 = fully
// filtered).
type Params struct {
	Type      Type
	Cutoff    float64
	Resonance float64
	Intensity float64
}

func DefaultParams() Params {
	return Params{Type: LowPass, Cutoff: 2000, Resonance: 1, Intensity: 1}
}

// Validate checks the boundary ranges.
func (p Params) Validate() error {
	if p.Type < LowPass || p.Type > HighShelf {
		return fmt.Errorf("filter type %d unknown", int(p.Type))
	}
	if !(p.Cutoff >= MinCutoff && p.Cutoff <= MaxCutoff) {
		return fmt.Errorf("filter cutoff %.1f out of range [%.0f, %.0f]", p.Cutoff, MinCutoff, MaxCutoff)
	}
	if !(p.Resonance >= 0 && p.Resonance <= MaxResonance) {
		return fmt.Errorf("filter resonance %.2f out of range [0, %.0f]", p.Resonance, MaxResonance)
	}
	if !(p.Intensity >= 0 && p.Intensity <= 1) {
		return fmt.Errorf("filter intensity %.2f out of range [0, 1]", p.Intensity)
	}
	return nil
}

// Processor is a stateful mono filter.
type Processor interface {
	Process(x float64) float64
	Reset()
}

// New returns a state-variable filter for p.
func New(p Params, sampleRate float64) *SVF {
	return NewSVF(p, sampleRate)
}

// SVF is a Chamberlin state-variable filter with persistent state.
type SVF struct {
	params     Params
	sampleRate float64
	f          float64
	qInv       float64
	boost      float64 // shelf gain
	lp, bp, hp float64
}

func NewSVF(p Params, sampleRate float64) *SVF {
	if !(sampleRate > 0) {
		sampleRate = 44100
	}
	s := &SVF{params: p, sampleRate: sampleRate}
	s.update()
	return s
}

// SetCutoff retunes the filter without clearing its state.
func (s *SVF) SetCutoff(cutoff float64) {
	s.params.Cutoff = cutoff
	s.update()
}

// Params returns the active parameters.
func (s *SVF) Params() Params { return s.params }

func (s *SVF) update() {
	nyquist := s.sampleRate / 2
	cutoff := s.params.Cutoff
	if !(cutoff >= MinCutoff) {
		cutoff = MinCutoff
	}
	res := s.params.Resonance
	if !(res >= MinResonance) {
		res = MinResonance
	}
	if res > MaxResonance {
		res = MaxResonance
	}
	s.qInv = 1 / res

	ratio := math.Min(cutoff/nyquist, 0.5)
	f := 2 * math.Sin(math.Pi*ratio)
	// Chamberlin recurrence is stable for f² + 2·f·q⁻¹ < 4.
	limit := 0.95 * (math.Sqrt(s.qInv*s.qInv+4) - s.qInv)
	if f > limit {
		f = limit
	}
	s.f = f

	switch s.params.Type {
	case LowShelf:
		s.boost = 0.25
		if cutoff < shelfCorner {
			s.boost = 0.5
		}
	case HighShelf:
		s.boost = 0.25
		if cutoff > shelfCorner {
			s.boost = 0.5
		}
	default:
		s.boost = 0
	}
}

func (s *SVF) Process(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	s.lp += s.f * s.bp
	s.hp = x - s.lp - s.qInv*s.bp
	s.bp += s.f * s.hp
	if math.IsNaN(s.bp) || math.IsInf(s.bp, 0) || math.IsNaN(s.lp) || math.IsInf(s.lp, 0) {
		s.Reset()
		return 0
	}

	var wet float64
	switch s.params.Type {
	case HighPass:
		wet = s.hp
	case BandPass:
		wet = s.bp
	case Notch:
		wet = s.hp + s.lp
	case Peak:
		wet = s.lp - s.hp
	case LowShelf:
		wet = x + s.lp*s.boost
	case HighShelf:
		wet = x + s.hp*s.boost
	default:
		wet = s.lp
	}
	mix := wetMix(s.params.Intensity)
	return x*(1-mix) + wet*mix
}

// wetMix clamps an Intensity to [0, 1]; NaN counts as dry.
func wetMix(intensity float64) float64 {
	if !(intensity >= 0) {
		return 0
	}
	return min(intensity, 1)
}

// ProcessBuffer filters buf in place.
func (s *SVF) ProcessBuffer(buf []float64) {
	for i, x := range buf {
		buf[i] = s.Process(x)
	}
}

func (s *SVF) Reset() {
	s.lp, s.bp, s.hp = 0, 0, 0
}
