package effects

import "math"

// Compressor is a feed-forward compressor with a soft knee. The level
// detector and the gain smoother share the attack/release coefficients.
type Compressor struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	attack      float64 // coefficient
	release     float64 // coefficient
	releaseSec  float64
	makeup      float64
	mix         float64
	env         float64
	gain        float64
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -20)
// ratio: compression ratio (e.g., 4 for 4:1)
// attackSec, releaseSec: time constants in seconds
// kneeDB: soft knee width in dB
// makeupDB: makeup gain in dB
// mix: dry/wet 0..1
func NewCompressor(sampleRate int, thresholdDB, ratio, attackSec, releaseSec, kneeDB, makeupDB, mix float64) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		thresholdDB: thresholdDB,
		ratio:       ratio,
		kneeDB:      math.Max(kneeDB, 0),
		attack:      timeCoef(attackSec, sampleRate),
		release:     timeCoef(releaseSec, sampleRate),
		releaseSec:  math.Max(releaseSec, 0),
		makeup:      math.Pow(10, makeupDB/20),
		mix:         clamp(mix, 0, 1),
		gain:        1,
	}
}

// timeCoef is exp(-1/(time·sr)); zero time follows instantly.
func timeCoef(sec float64, sampleRate int) float64 {
	if !(sec > 0) {
		return 0
	}
	return math.Exp(-1 / (sec * float64(sampleRate)))
}

func (c *Compressor) Process(x float64) float64 {
	x = sanitize(x)
	level := math.Abs(x)
	if level > c.env {
		c.env = c.attack*c.env + (1-c.attack)*level
	} else {
		c.env = c.release*c.env + (1-c.release)*level
	}
	target := c.computeGain(c.env)
	if target < c.gain {
		c.gain = c.attack*c.gain + (1-c.attack)*target
	} else {
		c.gain = c.release*c.gain + (1-c.release)*target
	}
	wet := x * c.gain * c.makeup
	if !finite(wet) {
		c.Reset()
		return x
	}
	return x*(1-c.mix) + wet*c.mix
}

// computeGain returns the linear gain for a detector level.
func (c *Compressor) computeGain(env float64) float64 {
	if env <= 1e-9 {
		return 1
	}
	over := 20*math.Log10(env) - c.thresholdDB
	var reductionDB float64
	switch {
	case c.kneeDB > 0 && math.Abs(over) <= c.kneeDB/2:
		k := over + c.kneeDB/2
		reductionDB = k * k / (2 * c.kneeDB)
	case over > 0:
		reductionDB = over
	default:
		return 1
	}
	return math.Pow(10, -reductionDB*(c.ratio-1)/c.ratio/20)
}

func (c *Compressor) Reset() {
	c.env = 0
	c.gain = 1
}

func (c *Compressor) TailSeconds() float64 { return c.releaseSec }
