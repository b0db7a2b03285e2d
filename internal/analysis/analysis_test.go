package analysis

import (
	"math"
	"testing"
)

const sr = 44100

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	return out
}

func TestLevels(t *testing.T) {
	x := sine(1000, sr)
	if p := Peak(x); math.Abs(p-1) > 1e-3 {
		t.Errorf("peak = %g, want 1", p)
	}
	if r := RMS(x); math.Abs(r-1/math.Sqrt2) > 1e-3 {
		t.Errorf("rms = %g, want %g", r, 1/math.Sqrt2)
	}
	if HasNonFinite(x) {
		t.Error("clean sine reported non-finite")
	}
	if !HasNonFinite([]float32{0, float32(math.Inf(1))}) {
		t.Error("missed +Inf")
	}
	if RMS([]float64{}) != 0 || Peak([]float32{}) != 0 {
		t.Error("empty input should measure zero")
	}
	if d := DBFS(0.5); math.Abs(d+6.0206) > 1e-3 {
		t.Errorf("DBFS(0.5) = %g", d)
	}
}

func TestDominantFrequency(t *testing.T) {
	for _, freq := range []float64{110, 440, 1000, 5000} {
		got, err := DominantFrequency(sine(freq, 16384), sr)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-freq) > 3 {
			t.Errorf("dominant of %g Hz = %g", freq, got)
		}
	}
}

func TestBandEnergy(t *testing.T) {
	s, err := NewSpectrum(sine(1000, 8192), sr)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size != 8192 {
		t.Fatalf("size = %d", s.Size)
	}
	in := s.BandEnergy(900, 1100)
	if total := s.TotalEnergy(); in < 0.95*total {
		t.Fatalf("band holds %g of %g", in, total)
	}
	if c := s.Centroid(); math.Abs(c-1000) > 200 {
		t.Fatalf("centroid = %g", c)
	}
}

func TestSpectrumWindowSize(t *testing.T) {
	s, err := NewSpectrum(make([]float32, 5000), sr)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size != 4096 || len(s.Magnitude) != 2049 {
		t.Fatalf("size = %d, bins = %d", s.Size, len(s.Magnitude))
	}
	if _, err := NewSpectrum([]float64{1}, sr); err != ErrTooShort {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	r := Analyze(sine(440, sr/2), sr)
	if r.Samples != sr/2 || r.Seconds != 0.5 {
		t.Fatalf("report = %+v", r)
	}
	if math.Abs(r.Dominant-440) > 3 {
		t.Fatalf("dominant = %g", r.Dominant)
	}
}

func BenchmarkSpectrum(b *testing.B) {
	x := sine(440, 8192)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewSpectrum(x, sr)
	}
}
