package effects

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
)

const (
	maxDelaySeconds = 4.0
	maxFeedback     = 0.95
)

// Delay is a single feedback delay line with a one-pole lowpass in the
// feedback path, so repeats darken as they decay.
type Delay struct {
	buf      []float64
	pos      int
	feedback float64
	damp     filter.OnePole
	wet      float64
	seconds  float64
}

// NewDelay creates a delay effect.
// delaySec: delay time in seconds
// feedback: feedback amount, capped at 0.95
// damping: 0..1, darkening of the repeats
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, delaySec, feedback, damping, wet float64) *Delay {
	delaySec = clamp(delaySec, 0, maxDelaySeconds)
	return &Delay{
		buf:      make([]float64, max(seconds(delaySec, sampleRate), 1)),
		feedback: clamp(feedback, 0, maxFeedback),
		damp:     filter.NewOnePole(dampingCutoff(damping), float64(sampleRate)),
		wet:      clamp(wet, 0, 1),
		seconds:  delaySec,
	}
}

func (d *Delay) Process(x float64) float64 {
	x = sanitize(x)
	delayed := d.buf[d.pos]
	fb := d.damp.Lowpass(delayed) * d.feedback
	d.buf[d.pos] = x + fb
	if !finite(d.buf[d.pos]) {
		d.Reset()
		return x
	}
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return x*(1-d.wet) + delayed*d.wet
}

func (d *Delay) Reset() {
	clear(d.buf)
	d.pos = 0
	d.damp.Reset()
}

func (d *Delay) TailSeconds() float64 {
	return delayTail(d.seconds, d.feedback)
}

// delayTail is the time for the repeats to fall 60 dB.
func delayTail(sec, feedback float64) float64 {
	if sec <= 0 {
		return 0
	}
	if feedback <= 0 {
		return sec
	}
	repeats := math.Log(0.001) / math.Log(feedback)
	return sec * (repeats + 1)
}
