package effects

import (
	"math"
	"sync/atomic"

	"github.com/alextrzyna/mcp-muse-sub000/internal/filter"
)

// EQ3Band is a 3-band equalizer built from two one-pole crossovers.
type EQ3Band struct {
	lowGain  float64
	midGain  float64
	highGain float64
	low      filter.OnePole
	high     filter.OnePole
}

// NewEQ3Band creates a 3-band EQ.
// lowGain, midGain, highGain: gain for each band (1.0 = unity)
// lowFreq, highFreq: crossover frequencies
func NewEQ3Band(sampleRate int, lowGain, midGain, highGain, lowFreq, highFreq float64) *EQ3Band {
	sr := float64(sampleRate)
	return &EQ3Band{
		lowGain:  lowGain,
		midGain:  midGain,
		highGain: highGain,
		low:      filter.NewOnePole(lowFreq, sr),
		high:     filter.NewOnePole(highFreq, sr),
	}
}

func (eq *EQ3Band) Process(x float64) float64 {
	x = sanitize(x)
	low := eq.low.Lowpass(x)
	high := eq.high.Highpass(x)
	mid := x - low - high
	return low*eq.lowGain + mid*eq.midGain + high*eq.highGain
}

func (eq *EQ3Band) Reset() {
	eq.low.Reset()
	eq.high.Reset()
}

// EQ5Band is a 5-band equalizer split at 200 Hz, 800 Hz, 2.5 kHz and 8 kHz.
// Gains are stored as float64 bit patterns so a control goroutine can adjust
// them while the audio goroutine reads.
type EQ5Band struct {
	gains [5]atomic.Uint64
	split [4]filter.OnePole
}

var defaultCrossovers = [4]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	for i, freq := range defaultCrossovers {
		eq.split[i] = filter.NewOnePole(freq, float64(sampleRate))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float64bits(1))
	}
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *EQ5Band) SetGain(band int, gain float64) {
	if band >= 0 && band < 5 && finite(gain) {
		eq.gains[band].Store(math.Float64bits(clamp(gain, 0, 4)))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float64 {
	if band >= 0 && band < 5 {
		return math.Float64frombits(eq.gains[band].Load())
	}
	return 1
}

func (eq *EQ5Band) Process(x float64) float64 {
	x = sanitize(x)
	var out float64
	rem := x
	for i := range eq.split {
		band := eq.split[i].Lowpass(rem)
		rem -= band
		out += band * eq.Gain(i)
	}
	return out + rem*eq.Gain(4)
}

func (eq *EQ5Band) Reset() {
	for i := range eq.split {
		eq.split[i].Reset()
	}
}
