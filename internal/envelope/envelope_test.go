package envelope

import (
	"math"
	"testing"
)

const sampleRate = 44100.0

func TestValueStaysInUnitRange(t *testing.T) {
	cases := []struct {
		name     string
		p        Params
		duration float64
	}{
		{"default", DefaultParams(), 1.0},
		{"zero attack", Params{0, 0.1, 0.5, 0.2}, 1.0},
		{"zero everything", Params{}, 0.5},
		{"compressed", Params{0.5, 0.5, 0.8, 1.0}, 0.4},
		{"full sustain", Params{0, 0, 1, 0}, 0.25},
		{"negative garbage", Params{-1, math.NaN(), 3, -2}, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := int(tc.duration * sampleRate)
			for i := 0; i <= n; i++ {
				v := Value(float64(i)/sampleRate, tc.duration, tc.p)
				if math.IsNaN(v) || v < 0 || v > 1 {
					t.Fatalf("sample %d: value %f outside [0,1]", i, v)
				}
			}
		})
	}
}

func TestValueEqualsSustainInSustainWindow(t *testing.T) {
	p := Params{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3}
	for i := 11; i < 70; i++ {
		ts := float64(i) / 100
		if v := Value(ts, 1.0, p); v != 0.7 {
			t.Fatalf("t=%.2f: got %v, want exactly 0.7", ts, v)
		}
	}
}

func TestValueIsContinuousAcrossPhases(t *testing.T) {
	for _, tc := range []struct {
		p        Params
		duration float64
	}{
		{Params{0.01, 0.1, 0.7, 0.3}, 1.0},
		{Params{0.2, 0.2, 0.3, 0.4}, 0.5},
		{Params{0.05, 0.05, 1, 0.1}, 0.3},
	} {
		f := tc.p.Fit(tc.duration)
		// steepest legal slope is the fastest linear ramp of any phase
		maxSlope := 0.0
		for _, seg := range []float64{f.Attack, f.Decay, f.Release} {
			if seg > 0 {
				maxSlope = math.Max(maxSlope, 1/seg)
			}
		}
		step := 1 / sampleRate
		limit := maxSlope*step + 1e-9
		prev := Value(0, tc.duration, tc.p)
		for i := 1; float64(i)*step < tc.duration; i++ {
			v := Value(float64(i)*step, tc.duration, tc.p)
			if math.Abs(v-prev) > limit {
				t.Fatalf("jump %.6f at sample %d exceeds slope limit %.6f (%+v)", math.Abs(v-prev), i, limit, tc.p)
			}
			prev = v
		}
	}
}

func TestFitCompressesProportionally(t *testing.T) {
	p := Params{Attack: 0.2, Decay: 0.2, Sustain: 0.5, Release: 0.6}.Fit(0.5)
	if got := p.Attack + p.Decay + p.Release; math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("fitted phases sum to %f, want 0.5", got)
	}
	if math.Abs(p.Release/p.Attack-3) > 1e-12 {
		t.Errorf("ratios not preserved: %+v", p)
	}
}

func TestAttackRampAndZeroAttack(t *testing.T) {
	p := Params{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.1}
	if v := Value(0.05, 1, p); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("mid attack: got %f, want 0.5", v)
	}
	p.Attack = 0
	if v := Value(0, 1, p); v != 1 {
		t.Errorf("zero attack should start at peak, got %f", v)
	}
}

func TestReleaseEndsAtZero(t *testing.T) {
	p := DefaultParams()
	if v := Value(1.0, 1.0, p); v != 0 {
		t.Errorf("value at end of note: got %f, want 0", v)
	}
	if v := Value(0.85, 1.0, p); math.Abs(v-0.35) > 1e-9 {
		t.Errorf("half-way through release: got %f, want 0.35", v)
	}
}

func TestStageAt(t *testing.T) {
	p := DefaultParams()
	for _, tc := range []struct {
		t    float64
		want Stage
	}{
		{0.005, StageAttack},
		{0.05, StageDecay},
		{0.5, StageSustain},
		{0.8, StageRelease},
		{1.0, StageDone},
	} {
		if got := StageAt(tc.t, 1.0, p); got != tc.want {
			t.Errorf("t=%.3f: got %s, want %s", tc.t, got, tc.want)
		}
	}
}

func TestReleaseFromNeverIncreases(t *testing.T) {
	prev := ReleaseFrom(0.6, 0, 0.3)
	if prev != 0.6 {
		t.Fatalf("release should start at held level, got %f", prev)
	}
	for i := 1; i <= int(0.3*sampleRate); i++ {
		v := ReleaseFrom(0.6, float64(i)/sampleRate, 0.3)
		if v > prev {
			t.Fatalf("release increased at sample %d: %f > %f", i, v, prev)
		}
		prev = v
	}
	if prev > 0.001 {
		t.Errorf("release should reach silence within release time, got %f", prev)
	}
	if v := ReleaseFrom(0.6, 0.1, 0); v != 0 {
		t.Errorf("zero release should cut immediately, got %f", v)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := []Params{
		{Attack: 6, Sustain: 0.5},
		{Decay: -1, Sustain: 0.5},
		{Sustain: 1.5},
		{Sustain: 0.5, Release: 11},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", p)
		}
	}
}
