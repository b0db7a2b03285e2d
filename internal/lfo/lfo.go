package lfo

import "math"

// Waveform selects the LFO shape.
const (
	WaveSaw      = 0
	WaveSquare   = 1
	WaveTriangle = 2
	WaveRandom   = 3
	WaveSine     = 4
)

// LFO is a low-frequency oscillator that produces per-sample modulation.
// Chorus lines and wavetable morphing each own one; phase offsets let several
// LFOs run in fixed relation to each other.
type LFO struct {
	depth    float64 // modulation depth, units depend on the caller
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
	offset   float64 // initial phase restored by Reset
	randVal  float64 // held value for sample-and-hold
}

// New returns an LFO configured with depth, rate and waveform.
func New(depth, rateHz float64, waveform int) *LFO {
	l := &LFO{}
	l.Set(depth, rateHz, waveform)
	return l
}

// Set configures the LFO parameters.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < WaveSaw || waveform > WaveSine {
		waveform = WaveTriangle
	}
	l.waveform = waveform
}

// SetPhase sets the starting phase in cycles (0.25 = 90 degrees).
func (l *LFO) SetPhase(cycles float64) {
	_, frac := math.Modf(cycles)
	if frac < 0 {
		frac++
	}
	l.offset = frac
	l.phase = frac
}

// Value returns the current output in [-depth, +depth] without advancing.
func (l *LFO) Value() float64 {
	if l.depth == 0 {
		return 0
	}
	var v float64
	switch l.waveform {
	case WaveSaw:
		v = 1.0 - 2.0*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1.0
		} else {
			v = -1.0
		}
	case WaveRandom:
		v = l.randVal
	case WaveSine:
		v = math.Sin(2 * math.Pi * l.phase)
	default: // WaveTriangle
		if l.phase < 0.5 {
			v = 4.0*l.phase - 1.0
		} else {
			v = 3.0 - 4.0*l.phase
		}
	}
	return v * l.depth
}

// Sample returns the current value and advances the LFO by one sample.
// Returns 0 if depth, rate or sampleRate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate <= 0 {
		return 0
	}
	v := l.Value()

	oldPhase := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1.0 {
		l.phase -= 1.0
	}

	// Sample-and-hold refreshes once per cycle.
	if l.waveform == WaveRandom && l.phase < oldPhase {
		l.randVal = math.Sin(l.phase*12345.6789+l.randVal*67890.1234) * 2.0
		l.randVal -= math.Floor(l.randVal)
		l.randVal = l.randVal*2.0 - 1.0
	}
	return v
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset returns the LFO to its configured starting phase.
func (l *LFO) Reset() {
	l.phase = l.offset
	l.randVal = 0
}
