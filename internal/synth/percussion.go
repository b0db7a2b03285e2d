package synth

import "math"

// Default body pitches used when a percussion voice is given no frequency.
const (
	kickFreq   = 55.0
	snareFreq  = 190.0
	hihatFreq  = 400.0
	cymbalFreq = 320.0
)

// Ratios of the six detuned square partials behind metallic percussion.
var metalRatios = [6]float64{2, 3, 4.16, 5.43, 6.79, 8.21}

// Kick sweeps a sine body from 4x down to the body frequency and adds a
// short click. Punch scales the click; Decay lengthens the body.
type Kick struct {
	Punch float64
	Decay float64
}

func (Kick) Kind() Kind { return KindKick }

func (o Kick) sample(c *Context) float64 {
	s := c.State
	t := c.T
	body := freqOr(c.Freq, kickFreq)
	sweep := body * (1 + 3*math.Exp(-15*t))
	s.BodyPhase = wrap(s.BodyPhase + sweep*c.dt())

	punch := clamp(o.Punch, 0, 1)
	bodyRate := 4 + 20*(1-clamp(o.Decay, 0, 1))
	out := sinCycles(s.BodyPhase) * decay(bodyRate, t)
	click := (0.6*c.white() + 0.4*math.Sin(2*math.Pi*3000*t)) * decay(250, t)
	return out + click*punch*0.5
}

// Snare mixes a tonal body with highpassed noise. Snap raises the noise and
// the attack crack; Tone raises the body.
type Snare struct {
	Snap float64
	Tone float64
}

func (Snare) Kind() Kind { return KindSnare }

func (o Snare) sample(c *Context) float64 {
	t := c.T
	snap := clamp(o.Snap, 0, 1)
	tone := clamp(o.Tone, 0, 1)
	f := freqOr(c.Freq, snareFreq)
	noise, _ := c.coloredNoise(1500, 8000)

	body := sinCycles(c.partial(0, f))*0.6 + sinCycles(c.partial(1, f*1.5))*0.4
	out := body * decay(20, t) * (0.3 + 0.7*tone)
	out += noise * decay(12+15*(1-snap), t) * (0.5 + 0.5*snap)
	out += c.white() * decay(200, t) * snap * 0.5
	return out
}

// HiHat blends six inharmonic squares with highpassed noise. Metallic sets
// the blend; Decay the ring length.
type HiHat struct {
	Decay    float64
	Metallic float64
}

func (HiHat) Kind() Kind { return KindHiHat }

func (o HiHat) sample(c *Context) float64 {
	t := c.T
	metal := metallic(c, freqOr(c.Freq, hihatFreq))
	noise, _ := c.coloredNoise(7000, 16000)
	m := clamp(o.Metallic, 0, 1)
	rate := 8 + 60*(1-clamp(o.Decay, 0, 1))
	out := (metal*m + noise*(1-m)) * decay(rate, t)
	out += c.white() * decay(600, t) * 0.3
	return out
}

// Cymbal is a longer, wider hi-hat with a shimmering partial stack. Size
// lengthens the wash; Brightness tilts it toward the noise band.
type Cymbal struct {
	Size       float64
	Brightness float64
}

func (Cymbal) Kind() Kind { return KindCymbal }

func (o Cymbal) sample(c *Context) float64 {
	t := c.T
	bright := clamp(o.Brightness, 0, 1)
	metal := metallic(c, freqOr(c.Freq, cymbalFreq))
	noise, _ := c.coloredNoise(5000, 12000)
	shimmer := 1 + 0.1*math.Sin(2*math.Pi*6*t)
	rate := 1 + 8*(1-clamp(o.Size, 0, 1))
	out := (metal*(1-bright)*0.6 + noise*(0.4+0.6*bright)) * shimmer * decay(rate, t)
	out += c.white() * decay(300, t) * 0.25
	return out
}

// metallic sums square partials at the metal ratios of base.
func metallic(c *Context, base float64) float64 {
	var sum float64
	for i, r := range metalRatios {
		sum += square(c.partial(i, base*r))
	}
	return sum / float64(len(metalRatios))
}

func freqOr(f, fallback float64) float64 {
	if f > 0 {
		return f
	}
	return fallback
}
