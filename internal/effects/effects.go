// Package effects implements the mono effect processors used per voice, per
// mixer channel and on the master bus.
package effects

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Effector processes mono audio one sample at a time.
type Effector interface {
	Process(x float64) float64
	Reset()
}

// Tailer is implemented by effects that keep ringing after their input stops.
type Tailer interface {
	TailSeconds() float64
}

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("unknown effect kind")

type Kind int

const (
	KindReverb Kind = iota
	KindDelay
	KindChorus
	KindCompressor
	KindDistortion
	KindEQ3
	KindEQ5
)

var kindNames = [...]string{"reverb", "delay", "chorus", "compressor", "distortion", "eq3", "eq5"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("effect(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if key == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Spec describes one effect slot. Only the knobs of the selected Kind are
// read; DefaultSpec fills them with usable values.
type Spec struct {
	Kind      Kind
	Intensity float64 // 0..1 dry/wet
	Bypass    bool

	// Reverb
	RoomSize float64 // 0..1
	Damping  float64 // 0..1, also used by Delay
	PreDelay float64 // seconds
	WetLevel float64 // 0..1

	// Delay and Chorus
	Time     float64 // seconds
	Feedback float64 // 0..0.95

	// Chorus
	Rate  float64 // Hz
	Depth float64 // 0..1

	// Compressor
	Threshold float64 // dB
	Ratio     float64
	Attack    float64 // seconds
	Release   float64 // seconds
	Knee      float64 // dB
	Makeup    float64 // dB

	// Distortion
	Drive float64 // 0..1
	Tone  float64 // Hz
	Level float64 // output level

	// EQ3 uses the first three gains, EQ5 all five. 1 = unity.
	Gains [5]float64
}

// DefaultSpec returns a spec for kind with every knob at its default.
func DefaultSpec(kind Kind) Spec {
	return Spec{
		Kind:      kind,
		Intensity: 0.5,
		RoomSize:  0.5,
		Damping:   0.5,
		PreDelay:  0.02,
		WetLevel:  0.6,
		Time:      0.25,
		Feedback:  0.4,
		Rate:      1.5,
		Depth:     0.5,
		Threshold: -18,
		Ratio:     4,
		Attack:    0.005,
		Release:   0.1,
		Knee:      6,
		Makeup:    0,
		Drive:     0.5,
		Tone:      5000,
		Level:     0.8,
		Gains:     [5]float64{1, 1, 1, 1, 1},
	}
}

// Validate checks knob ranges for the selected kind.
func (s Spec) Validate() error {
	if s.Kind < KindReverb || s.Kind > KindEQ5 {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(s.Kind))
	}
	if !inRange(s.Intensity, 0, 1) {
		return fmt.Errorf("%s intensity %.2f out of range [0, 1]", s.Kind, s.Intensity)
	}
	switch s.Kind {
	case KindReverb:
		if !inRange(s.RoomSize, 0, 1) || !inRange(s.Damping, 0, 1) || !inRange(s.WetLevel, 0, 1) {
			return fmt.Errorf("reverb room/damping/wet must be in [0, 1]")
		}
		if !inRange(s.PreDelay, 0, 1) {
			return fmt.Errorf("reverb pre-delay %.3f out of range [0, 1]", s.PreDelay)
		}
	case KindDelay:
		if !inRange(s.Time, 0.001, maxDelaySeconds) {
			return fmt.Errorf("delay time %.3f out of range [0.001, %.0f]", s.Time, maxDelaySeconds)
		}
		if !inRange(s.Feedback, 0, 1) {
			return fmt.Errorf("delay feedback %.2f out of range [0, 1]", s.Feedback)
		}
	case KindChorus:
		if !inRange(s.Rate, 0, 20) || !inRange(s.Depth, 0, 1) {
			return fmt.Errorf("chorus rate must be in [0, 20] Hz and depth in [0, 1]")
		}
	case KindCompressor:
		if !inRange(s.Threshold, -96, 0) {
			return fmt.Errorf("compressor threshold %.1f out of range [-96, 0]", s.Threshold)
		}
		if !inRange(s.Ratio, 1, 100) {
			return fmt.Errorf("compressor ratio %.1f out of range [1, 100]", s.Ratio)
		}
	case KindDistortion:
		if !inRange(s.Drive, 0, 1) {
			return fmt.Errorf("distortion drive %.2f out of range [0, 1]", s.Drive)
		}
	}
	return nil
}

// New builds the processor described by spec.
func New(spec Spec, sampleRate int) Effector {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	switch spec.Kind {
	case KindReverb:
		return NewReverb(sampleRate, spec.RoomSize, spec.Damping, spec.PreDelay, spec.WetLevel*spec.Intensity)
	case KindDelay:
		return NewDelay(sampleRate, spec.Time, spec.Feedback, spec.Damping, spec.Intensity)
	case KindChorus:
		return NewChorus(sampleRate, spec.Rate, spec.Depth, spec.Feedback, spec.Intensity)
	case KindCompressor:
		return NewCompressor(sampleRate, spec.Threshold, spec.Ratio, spec.Attack, spec.Release, spec.Knee, spec.Makeup, spec.Intensity)
	case KindDistortion:
		return NewDistortion(sampleRate, spec.Drive, spec.Tone, spec.Level, spec.Intensity)
	case KindEQ3:
		return NewEQ3Band(sampleRate, spec.Gains[0], spec.Gains[1], spec.Gains[2], 300, 3000)
	case KindEQ5:
		eq := NewEQ5Band(sampleRate)
		for i, g := range spec.Gains {
			eq.SetGain(i, g)
		}
		return eq
	}
	return passthrough{}
}

// TailSeconds reports how long the effect described by spec keeps sounding
// after its input goes silent.
func TailSeconds(spec Spec) float64 {
	if spec.Bypass {
		return 0
	}
	switch spec.Kind {
	case KindReverb:
		return spec.PreDelay + reverbTime(spec.RoomSize)
	case KindDelay:
		return delayTail(spec.Time, clamp(spec.Feedback, 0, maxFeedback))
	case KindChorus:
		return chorusTail
	case KindCompressor:
		return math.Max(spec.Release, 0)
	}
	return 0
}

type passthrough struct{}

func (passthrough) Process(x float64) float64 { return x }
func (passthrough) Reset()                    {}

// slot is a chain entry; bypassed slots are skipped but keep their state.
type slot struct {
	fx     Effector
	bypass bool
}

// Chain applies a sequence of effects in order.
type Chain struct {
	slots []slot
}

func NewChain(effects ...Effector) *Chain {
	c := &Chain{}
	for _, e := range effects {
		c.Add(e)
	}
	return c
}

// FromSpecs builds a chain from specs, honouring each spec's Bypass flag.
func FromSpecs(specs []Spec, sampleRate int) *Chain {
	c := &Chain{slots: make([]slot, 0, len(specs))}
	for _, s := range specs {
		c.slots = append(c.slots, slot{fx: New(s, sampleRate), bypass: s.Bypass})
	}
	return c
}

// Add appends e and returns its slot index.
func (c *Chain) Add(e Effector) int {
	c.slots = append(c.slots, slot{fx: e})
	return len(c.slots) - 1
}

// SetBypass toggles slot i. It reports false for an out-of-range index.
func (c *Chain) SetBypass(i int, bypass bool) bool {
	if i < 0 || i >= len(c.slots) {
		return false
	}
	c.slots[i].bypass = bypass
	return true
}

// Bypassed reports whether slot i is skipped.
func (c *Chain) Bypassed(i int) bool {
	return i >= 0 && i < len(c.slots) && c.slots[i].bypass
}

// Effect returns the processor in slot i, or nil.
func (c *Chain) Effect(i int) Effector {
	if i < 0 || i >= len(c.slots) {
		return nil
	}
	return c.slots[i].fx
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.slots)
}

func (c *Chain) Process(x float64) float64 {
	if c == nil {
		return x
	}
	for _, s := range c.slots {
		if s.bypass {
			continue
		}
		x = sanitize(s.fx.Process(x))
	}
	return x
}

// ProcessBuffer runs the chain over buf in place.
func (c *Chain) ProcessBuffer(buf []float64) {
	if c.Len() == 0 {
		return
	}
	for i, x := range buf {
		buf[i] = c.Process(x)
	}
}

func (c *Chain) Reset() {
	if c == nil {
		return
	}
	for _, s := range c.slots {
		s.fx.Reset()
	}
}

// TailSeconds sums the tails of the active slots; effects run in series.
func (c *Chain) TailSeconds() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, s := range c.slots {
		if s.bypass {
			continue
		}
		if t, ok := s.fx.(Tailer); ok {
			total += t.TailSeconds()
		}
	}
	return total
}

func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func seconds(sec float64, sampleRate int) int {
	return int(sec * float64(sampleRate))
}
