// Package envelope implements the ADSR amplitude envelope shared by every voice.
//
// The envelope is a pure function of elapsed time and the note's total
// duration, so a voice never has to carry envelope history beyond the level it
// held when it was explicitly released.
package envelope

import (
	"fmt"
	"math"
)

// Boundary ranges for envelope parameters, in seconds.
const (
	MaxAttack  = 5.0
	MaxDecay   = 10.0
	MaxRelease = 10.0
)

// Params holds attack, decay and release durations in seconds and the sustain
// level in [0,1].
type Params struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultParams returns a general purpose envelope.
func DefaultParams() Params {
	return Params{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3}
}

// Validate reports the first parameter outside its documented range.
func (p Params) Validate() error {
	switch {
	case !inRange(p.Attack, 0, MaxAttack):
		return fmt.Errorf("attack %.3f out of range [0, %.0f]", p.Attack, MaxAttack)
	case !inRange(p.Decay, 0, MaxDecay):
		return fmt.Errorf("decay %.3f out of range [0, %.0f]", p.Decay, MaxDecay)
	case !inRange(p.Sustain, 0, 1):
		return fmt.Errorf("sustain %.3f out of range [0, 1]", p.Sustain)
	case !inRange(p.Release, 0, MaxRelease):
		return fmt.Errorf("release %.3f out of range [0, %.0f]", p.Release, MaxRelease)
	}
	return nil
}

// Fit returns params whose phases fit inside duration. Negative or NaN values
// become zero and sustain is clamped to [0,1]. When attack+decay+release
// exceeds duration the three phases are scaled down proportionally.
func (p Params) Fit(duration float64) Params {
	p.Attack = nonNegative(p.Attack)
	p.Decay = nonNegative(p.Decay)
	p.Release = nonNegative(p.Release)
	p.Sustain = clamp01(p.Sustain)
	if !(duration > 0) {
		return Params{Sustain: p.Sustain}
	}
	total := p.Attack + p.Decay + p.Release
	if total > duration {
		scale := duration / total
		p.Attack *= scale
		p.Decay *= scale
		p.Release *= scale
	}
	return p
}

// ReleaseStart is the time the natural release begins for a note of the
// given duration.
func (p Params) ReleaseStart(duration float64) float64 {
	f := p.Fit(duration)
	return math.Max(duration-f.Release, 0)
}

// Stage identifies an envelope phase.
type Stage int

const (
	StageAttack Stage = iota
	StageDecay
	StageSustain
	StageRelease
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "done"
	}
}

// StageAt classifies time t of a note lasting duration.
func StageAt(t, duration float64, p Params) Stage {
	f := p.Fit(duration)
	switch {
	case !(duration > 0) || t >= duration:
		return StageDone
	case t < f.Attack:
		return StageAttack
	case t < f.Attack+f.Decay:
		return StageDecay
	case t < duration-f.Release:
		return StageSustain
	default:
		return StageRelease
	}
}

// Value computes the envelope level at time t for a note of the given
// duration. The result is always finite and within [0,1].
func Value(t, duration float64, p Params) float64 {
	if !(t >= 0) || !(duration > 0) {
		return 0
	}
	f := p.Fit(duration)
	releaseStart := duration - f.Release

	var v float64
	switch {
	case t < f.Attack:
		v = t / f.Attack
	case t < f.Attack+f.Decay:
		progress := clamp01((t - f.Attack) / f.Decay)
		v = 1 + (f.Sustain-1)*progress
	case t < releaseStart:
		v = f.Sustain
	default:
		if f.Release <= 0 {
			return 0
		}
		progress := clamp01((t - releaseStart) / f.Release)
		v = f.Sustain * (1 - progress)
	}
	return clamp01(v)
}

// ReleaseFrom ramps linearly from level to zero over release seconds, where
// since is the time elapsed since the explicit release. It never exceeds level.
func ReleaseFrom(level, since, release float64) float64 {
	level = clamp01(level)
	if !(release > 0) || since >= release {
		return 0
	}
	if since <= 0 {
		return level
	}
	return clamp01(level * (1 - since/release))
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func nonNegative(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
