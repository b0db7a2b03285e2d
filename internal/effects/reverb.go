package effects

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
)

var (
	combMillis    = [4]float64{29.7, 35.3, 38.9, 41.1}
	allpassMillis = [2]float64{5, 17}
)

// reverbTime maps room size onto an RT60 in seconds.
func reverbTime(roomSize float64) float64 {
	return 0.4 + 3.6*clamp(roomSize, 0, 1)
}

// Reverb is a Schroeder reverb: pre-delay, four parallel damped combs and two
// series allpass diffusers.
type Reverb struct {
	pre     delayLine
	combs   [4]combFilter
	allpass [2]allpassFilter
	rt60    float64
	preSec  float64
	wet     float64
}

type combFilter struct {
	buf  []float64
	pos  int
	fb   float64
	damp float64
	lp   float64
}

type allpassFilter struct {
	buf []float64
	pos int
	g   float64
}

type delayLine struct {
	buf []float64
	pos int
}

// NewReverb creates a reverb effect.
// roomSize: 0..1, scales comb lengths and decay time
// damping: 0..1, high-frequency loss inside the combs
// preDelay: seconds before the first reflection
// wet: wet/dry mix 0..1
func NewReverb(sampleRate int, roomSize, damping, preDelay, wet float64) *Reverb {
	roomSize = clamp(roomSize, 0, 1)
	r := &Reverb{
		rt60:   reverbTime(roomSize),
		preSec: clamp(preDelay, 0, 1),
		wet:    clamp(wet, 0, 1),
	}
	r.pre = delayLine{buf: make([]float64, max(seconds(r.preSec, sampleRate), 1))}
	scale := 0.6 + 0.8*roomSize
	for i, ms := range combMillis {
		d := ms * scale / 1000
		// RT60: the loop gain reaches -60 dB after rt60 seconds.
		r.combs[i] = combFilter{
			buf:  make([]float64, max(seconds(d, sampleRate), 1)),
			fb:   math.Pow(10, -3*d/r.rt60),
			damp: clamp(damping, 0, 1) * 0.4,
		}
	}
	for i, ms := range allpassMillis {
		r.allpass[i] = allpassFilter{
			buf: make([]float64, max(seconds(ms/1000, sampleRate), 1)),
			g:   0.5,
		}
	}
	return r
}

func (r *Reverb) Process(x float64) float64 {
	x = sanitize(x)
	in := r.pre.process(x)
	var out float64
	for i := range r.combs {
		out += r.combs[i].process(in)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	if !finite(out) {
		r.Reset()
		return x
	}
	return x*(1-r.wet) + out*r.wet
}

func (r *Reverb) Reset() {
	r.pre.reset()
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].pos = 0
		r.combs[i].lp = 0
	}
	for i := range r.allpass {
		clear(r.allpass[i].buf)
		r.allpass[i].pos = 0
	}
}

func (r *Reverb) TailSeconds() float64 {
	return r.preSec + r.rt60
}

func (c *combFilter) process(in float64) float64 {
	out := c.buf[c.pos]
	c.lp = out*(1-c.damp) + c.lp*c.damp
	c.buf[c.pos] = in + c.lp*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -a.g*in + bufOut
	a.buf[a.pos] = in + bufOut*a.g
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func (d *delayLine) process(in float64) float64 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}

// dampingCutoff maps a 0..1 damping amount onto a feedback lowpass corner.
func dampingCutoff(damping float64) float64 {
	return filter.MaxCutoff * math.Pow(0.05, clamp(damping, 0, 1))
}
