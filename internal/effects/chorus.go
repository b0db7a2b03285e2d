package effects

import (
	"github.com/alextrzyna/mcp-muse-sub000/internal/lfo"
)

const (
	chorusBaseMs  = 15.0
	chorusDepthMs = 5.0
	chorusTail    = (chorusBaseMs + 12 + chorusDepthMs) / 1000
)

var chorusOffsetsMs = [3]float64{0, 7, 12}

// Chorus reads three taps from one delay line, each swept by its own sine LFO
// a third of a cycle apart from the others.
type Chorus struct {
	buf        []float64
	pos        int
	base       [3]float64 // tap delays in samples
	lfos       [3]*lfo.LFO
	sampleRate float64
	feedback   float64
	wet        float64
	last       float64
}

// NewChorus creates a chorus effect.
// rateHz: LFO rate
// depth: 0..1 of the 5 ms sweep range
// feedback: 0..0.9 colouring
// wet: wet/dry mix 0..1
func NewChorus(sampleRate int, rateHz, depth, feedback, wet float64) *Chorus {
	sr := float64(sampleRate)
	depthSamples := clamp(depth, 0, 1) * chorusDepthMs * sr / 1000
	c := &Chorus{
		sampleRate: sr,
		feedback:   clamp(feedback, 0, 0.9),
		wet:        clamp(wet, 0, 1),
	}
	for i, off := range chorusOffsetsMs {
		c.base[i] = (chorusBaseMs + off) * sr / 1000
		l := lfo.New(depthSamples, rateHz, lfo.WaveSine)
		l.SetPhase(float64(i) / 3)
		c.lfos[i] = l
	}
	size := int(c.base[2]+depthSamples) + 4
	c.buf = make([]float64, size)
	return c
}

func (c *Chorus) Process(x float64) float64 {
	x = sanitize(x)
	c.buf[c.pos] = x + c.last*c.feedback
	var sum float64
	for i := range c.lfos {
		delay := c.base[i] + c.lfos[i].Sample(c.sampleRate)
		sum += c.read(delay)
	}
	out := sum / 3
	if !finite(out) {
		c.Reset()
		return x
	}
	c.last = out
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return x*(1-c.wet) + out*c.wet
}

// read interpolates linearly between the two samples around delay.
func (c *Chorus) read(delay float64) float64 {
	size := float64(len(c.buf))
	readPos := float64(c.pos) - delay
	for readPos < 0 {
		readPos += size
	}
	idx := int(readPos)
	frac := readPos - float64(idx)
	idx %= len(c.buf)
	idx2 := idx + 1
	if idx2 >= len(c.buf) {
		idx2 = 0
	}
	return c.buf[idx]*(1-frac) + c.buf[idx2]*frac
}

func (c *Chorus) Reset() {
	clear(c.buf)
	c.pos = 0
	c.last = 0
	for _, l := range c.lfos {
		l.Reset()
	}
}

func (c *Chorus) TailSeconds() float64 { return chorusTail }
