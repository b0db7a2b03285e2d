// Package analysis measures rendered audio: levels and spectra.
package analysis

import (
	"errors"
	"math"
	"math/bits"

	"github.com/ktye/fft"
)

// MaxWindow bounds the FFT size; longer inputs are analysed from their
// first MaxWindow samples.
const MaxWindow = 1 << 16

var ErrTooShort = errors.New("need at least 2 samples for a spectrum")

type Sample interface {
	~float32 | ~float64
}

func Peak[E Sample](x []E) float64 {
	var p float64
	for _, v := range x {
		p = max(p, math.Abs(float64(v)))
	}
	return p
}

func RMS[E Sample](x []E) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func HasNonFinite[E Sample](x []E) bool {
	for _, v := range x {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return true
		}
	}
	return false
}

// DBFS converts a linear level to decibels relative to full scale.
func DBFS(level float64) float64 {
	if level <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(level)
}

// Spectrum holds magnitudes for bins 0..Size/2.
type Spectrum struct {
	SampleRate int
	Size       int
	Magnitude  []float64
}

// NewSpectrum takes a Hann-windowed FFT over the largest power-of-two prefix
// of x.
func NewSpectrum[E Sample](x []E, sampleRate int) (Spectrum, error) {
	if len(x) < 2 {
		return Spectrum{}, ErrTooShort
	}
	n := 1 << (bits.Len(uint(min(len(x), MaxWindow))) - 1)
	f, err := fft.New(n)
	if err != nil {
		return Spectrum{}, err
	}
	buf := make([]complex128, n)
	for i := range buf {
		w := (1 - math.Cos(2*math.Pi*float64(i)/float64(n))) / 2
		v := float64(x[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		buf[i] = complex(v*w, 0)
	}
	buf = f.Transform(buf)
	mag := make([]float64, n/2+1)
	for i := range mag {
		re, im := real(buf[i]), imag(buf[i])
		mag[i] = math.Sqrt(re*re+im*im) / float64(n)
	}
	return Spectrum{SampleRate: sampleRate, Size: n, Magnitude: mag}, nil
}

func (s Spectrum) BinHz() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.Size)
}

// DominantFrequency returns the strongest non-DC frequency, refined by
// parabolic interpolation around the peak bin.
func (s Spectrum) DominantFrequency() float64 {
	best := 0
	for i := 1; i < len(s.Magnitude); i++ {
		if s.Magnitude[i] > s.Magnitude[best] || best == 0 {
			best = i
		}
	}
	if best == 0 {
		return 0
	}
	shift := 0.0
	if best < len(s.Magnitude)-1 {
		a, b, c := s.Magnitude[best-1], s.Magnitude[best], s.Magnitude[best+1]
		if d := a - 2*b + c; d != 0 {
			shift = 0.5 * (a - c) / d
		}
	}
	return (float64(best) + shift) * s.BinHz()
}

// BandEnergy sums squared magnitudes of the bins in [lo, hi) Hz.
func (s Spectrum) BandEnergy(lo, hi float64) float64 {
	bin := s.BinHz()
	if bin == 0 {
		return 0
	}
	var e float64
	for i, m := range s.Magnitude {
		f := float64(i) * bin
		if f >= lo && f < hi {
			e += m * m
		}
	}
	return e
}

func (s Spectrum) TotalEnergy() float64 {
	return s.BandEnergy(0, math.Inf(1))
}

// Centroid is the magnitude-weighted mean frequency.
func (s Spectrum) Centroid() float64 {
	var num, den float64
	for i, m := range s.Magnitude {
		num += float64(i) * s.BinHz() * m
		den += m
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func DominantFrequency[E Sample](x []E, sampleRate int) (float64, error) {
	s, err := NewSpectrum(x, sampleRate)
	if err != nil {
		return 0, err
	}
	return s.DominantFrequency(), nil
}

// Report summarises a rendered buffer.
type Report struct {
	Samples   int
	Seconds   float64
	Peak      float64
	RMS       float64
	Dominant  float64
	Centroid  float64
	NonFinite bool
}

func Analyze[E Sample](x []E, sampleRate int) Report {
	r := Report{
		Samples:   len(x),
		Peak:      Peak(x),
		RMS:       RMS(x),
		NonFinite: HasNonFinite(x),
	}
	if sampleRate > 0 {
		r.Seconds = float64(len(x)) / float64(sampleRate)
	}
	if s, err := NewSpectrum(x, sampleRate); err == nil {
		r.Dominant = s.DominantFrequency()
		r.Centroid = s.Centroid()
	}
	return r
}
