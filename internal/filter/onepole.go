package filter

import "math"

// Alpha returns the smoothing coefficient of an RC lowpass at cutoff Hz.
func Alpha(cutoff, sampleRate float64) float64 {
	if !(cutoff > 0) || !(sampleRate > 0) {
		return 1
	}
	if cutoff >= sampleRate/2 {
		return 1
	}
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	dt := 1.0 / sampleRate
	return dt / (rc + dt)
}

// OnePole is a single RC stage.
type OnePole struct {
	alpha float64
	y     float64
}

func NewOnePole(cutoff, sampleRate float64) OnePole {
	return OnePole{alpha: Alpha(cutoff, sampleRate)}
}

func (o *OnePole) SetCutoff(cutoff, sampleRate float64) {
	o.alpha = Alpha(cutoff, sampleRate)
}

func (o *OnePole) Lowpass(x float64) float64 {
	o.y += o.alpha * (x - o.y)
	return o.y
}

func (o *OnePole) Highpass(x float64) float64 {
	return x - o.Lowpass(x)
}

func (o *OnePole) Reset() { o.y = 0 }

// Simple is the cheap continuous variant: two cascaded one-pole stages give
// lowpass, highpass and bandpass without SVF cross-coupling. Notch, peak and
// shelves fall back to the nearest one-pole response.
type Simple struct {
	params Params
	lp1    OnePole
	lp2    OnePole
}

func NewSimple(p Params, sampleRate float64) *Simple {
	cutoff := p.Cutoff
	if !(cutoff >= MinCutoff) {
		cutoff = MinCutoff
	}
	return &Simple{
		params: p,
		lp1:    NewOnePole(cutoff, sampleRate),
		lp2:    NewOnePole(cutoff, sampleRate),
	}
}

func (s *Simple) Process(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	low := s.lp1.Lowpass(x)
	var wet float64
	switch s.params.Type {
	case HighPass, HighShelf:
		wet = x - low
	case BandPass, Peak:
		wet = low - s.lp2.Lowpass(low)
	case Notch:
		band := low - s.lp2.Lowpass(low)
		wet = x - band
	default:
		wet = low
	}
	mix := wetMix(s.params.Intensity)
	return x*(1-mix) + wet*mix
}

func (s *Simple) Reset() {
	s.lp1.Reset()
	s.lp2.Reset()
}
