package effects

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
)

const emphasisCutoff = 700.0

// Distortion is a tanh waveshaper: pre-emphasis boost, drive, saturation,
// tone lowpass and output compensation.
type Distortion struct {
	emphasis filter.OnePole
	tone     filter.OnePole
	gain     float64
	comp     float64
	mix      float64
}

// NewDistortion creates a distortion effect.
// drive: 0..1, maps to 1x..20x input gain
// toneHz: lowpass corner after the shaper (0 = open)
// level: output level
// mix: dry/wet 0..1
func NewDistortion(sampleRate int, drive, toneHz, level, mix float64) *Distortion {
	sr := float64(sampleRate)
	if !(toneHz > 0) {
		toneHz = sr / 2
	}
	gain := 1 + 19*clamp(drive, 0, 1)
	return &Distortion{
		emphasis: filter.NewOnePole(emphasisCutoff, sr),
		tone:     filter.NewOnePole(toneHz, sr),
		gain:     gain,
		comp:     clamp(level, 0, 2) / math.Tanh(gain),
		mix:      clamp(mix, 0, 1),
	}
}

func (d *Distortion) Process(x float64) float64 {
	x = sanitize(x)
	y := x + 0.5*d.emphasis.Highpass(x)
	y = math.Tanh(y * d.gain)
	y = d.tone.Lowpass(y) * d.comp
	if !finite(y) {
		d.Reset()
		return x
	}
	return x*(1-d.mix) + y*d.mix
}

func (d *Distortion) Reset() {
	d.emphasis.Reset()
	d.tone.Reset()
}
