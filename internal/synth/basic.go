package synth

import "math"

type Sine struct{}

func (Sine) Kind() Kind { return KindSine }

func (Sine) sample(c *Context) float64 {
	return sinCycles(c.State.Phase)
}

// Square is a pulse wave; PulseWidth is the high fraction of the cycle.
type Square struct {
	PulseWidth float64
}

func (Square) Kind() Kind { return KindSquare }

func (o Square) sample(c *Context) float64 {
	pw := o.PulseWidth
	if !(pw > 0 && pw < 1) {
		pw = 0.5
	}
	if c.State.Phase < pw {
		return 1
	}
	return -1
}

type Sawtooth struct{}

func (Sawtooth) Kind() Kind { return KindSawtooth }

func (Sawtooth) sample(c *Context) float64 {
	return 2*c.State.Phase - 1
}

type Triangle struct{}

func (Triangle) Kind() Kind { return KindTriangle }

func (Triangle) sample(c *Context) float64 {
	return triangle(c.State.Phase)
}

// NoiseColor selects the spectral slope of Noise.
type NoiseColor int

const (
	White NoiseColor = iota
	Pink
	Brown
)

type Noise struct {
	Color NoiseColor
}

func (o Noise) Kind() Kind {
	switch o.Color {
	case Pink:
		return KindPinkNoise
	case Brown:
		return KindBrownNoise
	}
	return KindWhiteNoise
}

func (o Noise) sample(c *Context) float64 {
	switch o.Color {
	case Pink:
		return pinkNoise(c)
	case Brown:
		return brownNoise(c)
	}
	return c.white()
}

// pinkNoise is the three-pole economy approximation of a -3 dB/octave slope.
func pinkNoise(c *Context) float64 {
	s := c.State
	w := c.white()
	s.pink[0] = 0.99765*s.pink[0] + w*0.0990460
	s.pink[1] = 0.96300*s.pink[1] + w*0.2965164
	s.pink[2] = 0.57000*s.pink[2] + w*1.0526913
	return clamp((s.pink[0]+s.pink[1]+s.pink[2]+w*0.1848)*0.25, -1, 1)
}

// brownNoise is leaky integrated white noise.
func brownNoise(c *Context) float64 {
	s := c.State
	s.brown = (s.brown + 0.02*c.white()) / 1.02
	return clamp(s.brown*3.5, -1, 1)
}

func triangle(phase float64) float64 {
	if phase < 0.5 {
		return 4*phase - 1
	}
	return 3 - 4*phase
}

func saw(phase float64) float64 {
	return 2*phase - 1
}

func square(phase float64) float64 {
	if phase < 0.5 {
		return 1
	}
	return -1
}

// decay is exp(-rate·t) with a floor on rate.
func decay(rate, t float64) float64 {
	return math.Exp(-math.Max(rate, 0.01) * t)
}
