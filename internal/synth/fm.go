package synth

import (
	"math"

	"github.com/alextrzyna/mcp-muse-sub000/internal/lfo"
)

// FM is two-operator phase modulation:
// sin(2π·carrier·t + Index·sin(2π·modulator·t)).
// The modulator runs at ModulatorFreq Hz, or Ratio times the carrier when
// ModulatorFreq is zero.
type FM struct {
	ModulatorFreq float64
	Ratio         float64
	Index         float64
}

func (FM) Kind() Kind { return KindFM }

func (o FM) modFreq(carrier float64) float64 {
	if o.ModulatorFreq > 0 {
		return o.ModulatorFreq
	}
	r := o.Ratio
	if !(r > 0) {
		r = 1
	}
	return carrier * r
}

func (o FM) sample(c *Context) float64 {
	s := c.State
	s.ModPhase = wrap(s.ModPhase + o.modFreq(c.Freq)*c.dt())
	return math.Sin(2*math.Pi*s.Phase + o.Index*sinCycles(s.ModPhase))
}

// Granular overlaps Hann-windowed sine grains. A new grain starts every
// GrainSize·(1-Overlap) seconds; each grain carries a small pitch jitter
// drawn once per slot from the voice's random source. Density gates grains
// and scales the mix.
type Granular struct {
	GrainSize float64 // seconds
	Overlap   float64 // 0..0.95
	Density   float64 // 0..1
}

func (Granular) Kind() Kind { return KindGranular }

func (o Granular) sample(c *Context) float64 {
	s := c.State
	if !s.seeded {
		for i := range s.jitter {
			s.jitter[i] = c.white()
			s.gate[i] = (c.white() + 1) / 2
		}
		s.seeded = true
	}
	size := math.Max(o.GrainSize, 0.005)
	overlap := clamp(o.Overlap, 0, 0.95)
	density := clamp(o.Density, 0, 1)
	period := size * (1 - overlap)
	active := int(math.Ceil(size / period))

	newest := int(math.Floor(c.T / period))
	var sum float64
	for k := newest; k > newest-active && k >= 0; k-- {
		slot := k % grainSlots
		if s.gate[slot] > density {
			continue
		}
		local := c.T - float64(k)*period
		if local < 0 || local >= size {
			continue
		}
		window := 0.5 * (1 - math.Cos(2*math.Pi*local/size))
		pitch := c.Freq * (1 + 0.02*s.jitter[slot])
		sum += window * math.Sin(2*math.Pi*pitch*local)
	}
	gain := (0.5 + 0.5*density) / math.Max(1, float64(active)*0.5)
	return sum * gain
}

// Wavetable morphs sine -> triangle -> sawtooth -> square -> sine. The scan
// point is Position plus a slow LFO at MorphRate Hz.
type Wavetable struct {
	Position  float64 // 0..1
	MorphRate float64 // Hz
}

func (Wavetable) Kind() Kind { return KindWavetable }

func (o Wavetable) sample(c *Context) float64 {
	s := c.State
	if s.morph == nil {
		s.morph = lfo.New(0.25, o.MorphRate, lfo.WaveSine)
	}
	scan := wrap(o.Position + s.morph.Sample(c.SampleRate))
	zone := scan * 4
	i := int(zone) % 4
	frac := zone - math.Floor(zone)
	a := tableWave(i, s.Phase)
	b := tableWave((i+1)%4, s.Phase)
	return a + (b-a)*frac
}

func tableWave(i int, phase float64) float64 {
	switch i {
	case 1:
		return triangle(phase)
	case 2:
		return saw(phase)
	case 3:
		return square(phase)
	}
	return sinCycles(phase)
}
