// Package mixer implements the channel mixer: a lazily created effect chain
// per input channel with volume, pan, mute and solo, summed through a master
// chain and master volume.
package mixer

import (
	"fmt"
	"math"
	"slices"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
)

const (
	MinVolume = 0.0
	MaxVolume = 2.0
)

// ChannelChain is one input channel's mixing unit.
type ChannelChain struct {
	ID     int
	Volume float64 // [0, 2]
	Pan    float64 // [-1, 1], negative is left
	Mute   bool
	Solo   bool

	chain *effects.Chain
	buf   []float64
}

// Gains returns the left and right gains for the channel's volume and pan.
func (c *ChannelChain) Gains() (left, right float64) {
	return gains(c.Volume, c.Pan)
}

func gains(volume, pan float64) (left, right float64) {
	left = volume * (1 - math.Max(pan, 0))
	right = volume * (1 + math.Min(pan, 0))
	return left, right
}

// Effects exposes the channel's chain.
func (c *ChannelChain) Effects() *effects.Chain { return c.chain }

// Config is the mixer-wide state.
type Config struct {
	MasterVolume float64
	Routing      map[int][]int    // channel -> downstream channels
	Groups       map[string][]int // named channel sets
}

// Mixer is not safe for concurrent use.
type Mixer struct {
	sampleRate int
	channels   map[int]*ChannelChain
	ids        []int // sorted channel ids
	master     *effects.Chain
	config     Config
	left       []float64
	right      []float64
}

func New(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Mixer{
		sampleRate: sampleRate,
		channels:   make(map[int]*ChannelChain),
		master:     effects.NewChain(),
		config: Config{
			MasterVolume: 1,
			Routing:      make(map[int][]int),
			Groups:       make(map[string][]int),
		},
	}
}

// Channel returns the chain for id, creating it at unity gain, centre pan.
func (m *Mixer) Channel(id int) *ChannelChain {
	if c, ok := m.channels[id]; ok {
		return c
	}
	c := &ChannelChain{ID: id, Volume: 1, chain: effects.NewChain()}
	m.channels[id] = c
	i, _ := slices.BinarySearch(m.ids, id)
	m.ids = slices.Insert(m.ids, i, id)
	return c
}

// Lookup returns the chain for id without creating it.
func (m *Mixer) Lookup(id int) (*ChannelChain, bool) {
	c, ok := m.channels[id]
	return c, ok
}

// Channels returns the registered channel ids in ascending order.
func (m *Mixer) Channels() []int {
	return slices.Clone(m.ids)
}

func (m *Mixer) SetVolume(id int, volume float64) {
	m.Channel(id).Volume = clamp(volume, MinVolume, MaxVolume)
}

func (m *Mixer) SetPan(id int, pan float64) {
	m.Channel(id).Pan = clamp(pan, -1, 1)
}

func (m *Mixer) SetMute(id int, mute bool) {
	m.Channel(id).Mute = mute
}

func (m *Mixer) SetSolo(id int, solo bool) {
	m.Channel(id).Solo = solo
}

// AddEffect appends an effect built from spec to channel id and returns its
// slot index.
func (m *Mixer) AddEffect(id int, spec effects.Spec) int {
	c := m.Channel(id)
	i := c.chain.Add(effects.New(spec, m.sampleRate))
	c.chain.SetBypass(i, spec.Bypass)
	return i
}

// SetBypass toggles slot on channel id.
func (m *Mixer) SetBypass(id, slot int, bypass bool) bool {
	c, ok := m.channels[id]
	if !ok {
		return false
	}
	return c.chain.SetBypass(slot, bypass)
}

func (m *Mixer) AddMasterEffect(spec effects.Spec) int {
	i := m.master.Add(effects.New(spec, m.sampleRate))
	m.master.SetBypass(i, spec.Bypass)
	return i
}

// AddMasterEffector appends an already built processor to the master chain.
func (m *Mixer) AddMasterEffector(fx effects.Effector) int {
	return m.master.Add(fx)
}

func (m *Mixer) SetMasterBypass(slot int, bypass bool) bool {
	return m.master.SetBypass(slot, bypass)
}

func (m *Mixer) SetMasterVolume(v float64) {
	m.config.MasterVolume = clamp(v, MinVolume, MaxVolume)
}

func (m *Mixer) MasterVolume() float64 { return m.config.MasterVolume }

// Route records downstream channels for from. Routes are bookkeeping for bus
// sends; they do not change the mix.
func (m *Mixer) Route(from int, to ...int) {
	m.Channel(from)
	m.config.Routing[from] = slices.Clone(to)
}

func (m *Mixer) Routes(from int) []int {
	return slices.Clone(m.config.Routing[from])
}

// SetGroup names a set of channels, creating them as needed.
func (m *Mixer) SetGroup(name string, ids ...int) {
	for _, id := range ids {
		m.Channel(id)
	}
	m.config.Groups[name] = slices.Clone(ids)
}

func (m *Mixer) MuteGroup(name string, mute bool) error {
	ids, ok := m.config.Groups[name]
	if !ok {
		return fmt.Errorf("unknown channel group %q", name)
	}
	for _, id := range ids {
		m.SetMute(id, mute)
	}
	return nil
}

func (m *Mixer) SoloGroup(name string, solo bool) error {
	ids, ok := m.config.Groups[name]
	if !ok {
		return fmt.Errorf("unknown channel group %q", name)
	}
	for _, id := range ids {
		m.SetSolo(id, solo)
	}
	return nil
}

// Config returns a copy of the mixer-wide state.
func (m *Mixer) Config() Config {
	out := Config{
		MasterVolume: m.config.MasterVolume,
		Routing:      make(map[int][]int, len(m.config.Routing)),
		Groups:       make(map[string][]int, len(m.config.Groups)),
	}
	for k, v := range m.config.Routing {
		out.Routing[k] = slices.Clone(v)
	}
	for k, v := range m.config.Groups {
		out.Groups[k] = slices.Clone(v)
	}
	return out
}

// SoloActive reports whether any channel is soloed.
func (m *Mixer) SoloActive() bool {
	for _, c := range m.channels {
		if c.Solo {
			return true
		}
	}
	return false
}

// audible reports whether channel id contributes to the mix, and its chain
// when one is registered.
func (m *Mixer) audible(id int, soloActive bool) (*ChannelChain, bool) {
	c, ok := m.channels[id]
	if !ok {
		return nil, !soloActive
	}
	if c.Mute || (soloActive && !c.Solo) {
		return c, false
	}
	return c, true
}

// ProcessChannel runs buf through channel id's chain in place. Unregistered
// channels pass through untouched.
func (m *Mixer) ProcessChannel(id int, buf []float64) {
	if c, ok := m.channels[id]; ok {
		c.chain.ProcessBuffer(buf)
	}
}

// MixStereo mixes inputs, indexed by channel id, into left and right. The
// output length is the shortest of left and right; shorter inputs are
// treated as silent past their end.
func (m *Mixer) MixStereo(inputs [][]float64, left, right []float64) {
	n := min(len(left), len(right))
	clear(left[:n])
	clear(right[:n])
	soloActive := m.SoloActive()
	for id, in := range inputs {
		c, ok := m.audible(id, soloActive)
		if !ok || in == nil {
			continue
		}
		gl, gr := 1.0, 1.0
		src := in
		if c != nil {
			gl, gr = c.Gains()
			c.buf = grow(c.buf, n)
			copy(c.buf, in)
			clear(c.buf[min(len(in), n):])
			c.chain.ProcessBuffer(c.buf)
			src = c.buf
		}
		for i := 0; i < n && i < len(src); i++ {
			left[i] += src[i] * gl
			right[i] += src[i] * gr
		}
	}
}

// Mix mixes inputs to mono: the average of left and right, then the master
// chain and master volume.
func (m *Mixer) Mix(inputs [][]float64, out []float64) {
	m.left = grow(m.left, len(out))
	m.right = grow(m.right, len(out))
	m.MixStereo(inputs, m.left, m.right)
	for i := range out {
		out[i] = m.master.Process((m.left[i]+m.right[i])/2) * m.config.MasterVolume
	}
}

// MixFrame mixes one sample per channel, indexed by channel id, to mono.
func (m *Mixer) MixFrame(perChannel []float64) float64 {
	soloActive := m.SoloActive()
	var l, r float64
	for id, x := range perChannel {
		c, ok := m.audible(id, soloActive)
		if !ok {
			continue
		}
		if c == nil {
			l += x
			r += x
			continue
		}
		y := c.chain.Process(x)
		gl, gr := c.Gains()
		l += y * gl
		r += y * gr
	}
	return m.master.Process((l+r)/2) * m.config.MasterVolume
}

// TailSeconds is the longest ring-out of any channel chain plus the master
// chain's.
func (m *Mixer) TailSeconds() float64 {
	var tail float64
	for _, c := range m.channels {
		tail = math.Max(tail, c.chain.TailSeconds())
	}
	return tail + m.master.TailSeconds()
}

// Reset clears all effect state; settings are kept.
func (m *Mixer) Reset() {
	for _, c := range m.channels {
		c.chain.Reset()
	}
	m.master.Reset()
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
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
