package synth

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/lfo"
)

const padPartials = 8

// Pad is an eight-partial harmonic stack with 1/i^0.7 rolloff. Warmth
// darkens the upper partials, Evolution slowly reweights them and Movement
// adds a gentle vibrato.
type Pad struct {
	Warmth    float64
	Evolution float64
	Movement  float64
}

func (Pad) Kind() Kind { return KindPad }

func (o Pad) sample(c *Context) float64 {
	s := c.State
	warmth := clamp(o.Warmth, 0, 1)
	evolution := clamp(o.Evolution, 0, 1)
	movement := clamp(o.Movement, 0, 1)
	if s.evolve == nil {
		s.evolve = lfo.New(evolution, 0.1+0.4*evolution, lfo.WaveSine)
		s.move = lfo.New(0.006*movement, 0.2+2*movement, lfo.WaveSine)
	}
	e := s.evolve.Sample(c.SampleRate)
	vib := 1 + s.move.Sample(c.SampleRate)
	f := c.Freq * vib

	var sum, norm float64
	for i := 1; i <= padPartials; i++ {
		k := float64(i)
		amp := math.Pow(k, -0.7) * math.Exp(-(k-1)*(1-warmth)*0.35)
		w := amp * (1 + e*math.Cos(math.Pi*k/4))
		sum += w * sinCycles(c.partial(i-1, f*k))
		norm += amp
	}
	return sum / (norm * (1 + evolution))
}

// Texture blends a sawtooth with white noise by Roughness and then weights
// the spectrum by Tilt: -1 keeps only the lows, +1 only the highs.
type Texture struct {
	Roughness float64
	Tilt      float64
}

func (Texture) Kind() Kind { return KindTexture }

func (o Texture) sample(c *Context) float64 {
	s := c.State
	if !s.noiseReady {
		s.noiseLP.SetCutoff(1000, freqOr(c.SampleRate, 44100))
		s.noiseReady = true
	}
	r := clamp(o.Roughness, 0, 1)
	tonal := 0.5*saw(s.Phase) + 0.5*sinCycles(s.Phase)
	x := tonal*(1-r) + c.white()*r
	low := s.noiseLP.Lowpass(x)
	high := x - low
	w := (clamp(o.Tilt, -1, 1) + 1) / 2
	return (low*(1-w) + high*w) / math.Max(w, 1-w)
}

var droneAmps = [6]float64{1, 0.5, 0.35, 0.25, 0.2, 0.15}

// Drone is a fundamental plus five overtones, each detuned alternately sharp
// and flat by Detune, under a slow amplitude swell set by Modulation.
type Drone struct {
	Detune     float64
	Modulation float64
}

func (Drone) Kind() Kind { return KindDrone }

func (o Drone) sample(c *Context) float64 {
	s := c.State
	mod := clamp(o.Modulation, 0, 1)
	if s.evolve == nil {
		s.evolve = lfo.New(mod, 0.15, lfo.WaveSine)
	}
	m := s.evolve.Sample(c.SampleRate)
	detune := clamp(o.Detune, 0, 1) * 0.01

	var sum, norm float64
	for i, amp := range droneAmps {
		k := float64(i + 1)
		ratio := k
		if i > 0 {
			sign := 1.0
			if i%2 == 0 {
				sign = -1
			}
			ratio *= 1 + sign*detune*k/2
		}
		swell := 1 + 0.3*m
		if i%2 == 1 {
			swell = 1 - 0.3*m
		}
		sum += amp * swell * sinCycles(c.partial(i, c.Freq*ratio))
		norm += amp
	}
	return sum / (norm * 1.3)
}
