package synth

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
)

var (
	zapRatios = [4]float64{1, 2.76, 5.40, 8.93}
	zapAmps   = [4]float64{1, 0.5, 0.3, 0.2}
)

// Zap is a falling inharmonic stack over a noise burst. Energy lengthens the
// decay and loudens the burst; Sweep sets how far above the target pitch the
// fall starts.
type Zap struct {
	Energy float64
	Sweep  float64
}

func (Zap) Kind() Kind { return KindZap }

func (o Zap) sample(c *Context) float64 {
	t := c.T
	energy := clamp(o.Energy, 0, 1)
	f := freqOr(c.Freq, 880) * (1 + 3*clamp(o.Sweep, 0, 1)*math.Exp(-20*t))
	var sum, norm float64
	for i, r := range zapRatios {
		sum += zapAmps[i] * sinCycles(c.partial(i, f*r))
		norm += zapAmps[i]
	}
	out := sum / norm * decay(25/(0.2+energy), t)
	out += c.white() * decay(60, t) * energy * 0.4
	return out
}

// Swoosh sweeps a resonant bandpass over white noise. Direction >= 0 rises
// (quadratic fade in), negative falls (quadratic fade out).
type Swoosh struct {
	Direction float64
	Resonance float64 // 0..1
}

func (Swoosh) Kind() Kind { return KindSwoosh }

func (o Swoosh) sample(c *Context) float64 {
	u := clamp(c.T/math.Max(c.Duration, 0.05), 0, 1)
	var cutoff, env float64
	if o.Direction >= 0 {
		cutoff = 200 * math.Pow(40, u)
		env = u * u
	} else {
		cutoff = 8000 * math.Pow(40, -u)
		env = (1 - u) * (1 - u)
	}
	q := 0.7 + 6*clamp(o.Resonance, 0, 1)
	band := c.bandpass(cutoff, q, c.white())
	return clamp(band/math.Sqrt(q)*1.5, -1, 1) * env
}

// Chime stacks Partials partials, each pushed sharp by Inharmonicity and
// decaying faster the higher it sits. Decay is the fundamental's decay time
// in seconds.
type Chime struct {
	Partials      int
	Inharmonicity float64
	Decay         float64
}

func (Chime) Kind() Kind { return KindChime }

func (o Chime) sample(c *Context) float64 {
	t := c.T
	n := o.Partials
	if n < 1 {
		n = 1
	}
	if n > maxPartials {
		n = maxPartials
	}
	inh := clamp(o.Inharmonicity, 0, 1)
	decaySec := math.Max(o.Decay, 0.05)
	f := freqOr(c.Freq, 880)
	var sum, norm float64
	for i := 1; i <= n; i++ {
		k := float64(i)
		ratio := k * (1 + inh*0.02*(k*k-1))
		amp := 1 / k
		rate := (1 + 0.6*(k-1)) / decaySec
		sum += amp * sinCycles(c.partial(i-1, f*ratio)) * decay(rate, t)
		norm += amp
	}
	return sum / norm
}

// Burst is band-limited noise around the voice pitch plus a tonal core.
// Shape < 0.5 gives a sharp exponential hit; otherwise a Gaussian swell
// Width seconds wide.
type Burst struct {
	Shape float64
	Width float64 // seconds
}

func (Burst) Kind() Kind { return KindBurst }

func (o Burst) sample(c *Context) float64 {
	t := c.T
	width := math.Max(o.Width, 0.005)
	var env float64
	if o.Shape < 0.5 {
		env = math.Exp(-t / width)
	} else {
		d := (t - 2*width) / width
		env = math.Exp(-d * d)
	}
	f := freqOr(c.Freq, 1000)
	band := c.bandpass(f, 1.5, c.white())
	tone := sinCycles(c.State.Phase)
	return clamp(band*0.7+tone*0.3, -1, 1) * env
}

// bandpass runs x through the voice's SVF bandpass, retuned to cutoff.
func (c *Context) bandpass(cutoff, q, x float64) float64 {
	s := c.State
	cutoff = clamp(cutoff, filter.MinCutoff, filter.MaxCutoff)
	if s.svf == nil {
		s.svf = filter.NewSVF(filter.Params{Type: filter.BandPass, Cutoff: cutoff, Resonance: q, Intensity: 1}, c.SampleRate)
	} else if s.svf.Params().Cutoff != cutoff {
		s.svf.SetCutoff(cutoff)
	}
	return s.svf.Process(x)
}
