package muse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/mixer"
)

// ParseEffect parses an effect directive of the form "kind p1,p2,..." with
// optional surrounding braces, e.g. "{reverb 0.4,0.8}". Parameters are
// positional and may be left off:
//
//	reverb      intensity, room size, damping, pre-delay s, wet level
//	delay       intensity, time s, feedback, damping
//	chorus      intensity, rate Hz, depth, feedback
//	compressor  intensity, threshold dB, ratio, attack s, release s, knee dB, makeup dB
//	distortion  intensity, drive, tone Hz, level
//	eq3         low, mid, high gains
//	eq5         five band gains
func ParseEffect(directive string) (effects.Spec, error) {
	raw := strings.TrimSpace(directive)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return effects.Spec{}, fmt.Errorf("empty effect directive")
	}
	parts := strings.SplitN(raw, " ", 2)
	kind, err := effects.ParseKind(parts[0])
	if err != nil {
		return effects.Spec{}, err
	}
	spec := effects.DefaultSpec(kind)
	if len(parts) > 1 {
		fields := positional(&spec)
		for i, p := range strings.Split(parts[1], ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if i >= len(fields) {
				return effects.Spec{}, fmt.Errorf("%s takes at most %d parameters", kind, len(fields))
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return effects.Spec{}, fmt.Errorf("%s parameter %d: %w", kind, i+1, err)
			}
			*fields[i] = v
		}
	}
	if err := spec.Validate(); err != nil {
		return effects.Spec{}, err
	}
	return spec, nil
}

func positional(s *effects.Spec) []*float64 {
	switch s.Kind {
	case effects.KindReverb:
		return []*float64{&s.Intensity, &s.RoomSize, &s.Damping, &s.PreDelay, &s.WetLevel}
	case effects.KindDelay:
		return []*float64{&s.Intensity, &s.Time, &s.Feedback, &s.Damping}
	case effects.KindChorus:
		return []*float64{&s.Intensity, &s.Rate, &s.Depth, &s.Feedback}
	case effects.KindCompressor:
		return []*float64{&s.Intensity, &s.Threshold, &s.Ratio, &s.Attack, &s.Release, &s.Knee, &s.Makeup}
	case effects.KindDistortion:
		return []*float64{&s.Intensity, &s.Drive, &s.Tone, &s.Level}
	case effects.KindEQ3:
		return []*float64{&s.Gains[0], &s.Gains[1], &s.Gains[2]}
	case effects.KindEQ5:
		return []*float64{&s.Gains[0], &s.Gains[1], &s.Gains[2], &s.Gains[3], &s.Gains[4]}
	}
	return nil
}

// ParseChannelEffect parses "channel:directive", e.g. "2:delay 0.3,0.25".
func ParseChannelEffect(s string) (int, effects.Spec, error) {
	ch, directive, ok := strings.Cut(s, ":")
	if !ok {
		return 0, effects.Spec{}, fmt.Errorf("channel effect %q: want channel:effect", s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(ch))
	if err != nil {
		return 0, effects.Spec{}, fmt.Errorf("channel effect %q: %w", s, err)
	}
	spec, err := ParseEffect(directive)
	if err != nil {
		return 0, effects.Spec{}, fmt.Errorf("channel %d: %w", id, err)
	}
	return id, spec, nil
}

// MixerSetup is the declarative form of a mixer configuration, as the CLI
// collects it from flags.
type MixerSetup struct {
	MasterVolume  *float64 // nil keeps the mixer default
	MasterEffects []effects.Spec
	Channels      map[int]ChannelSetup
}

type ChannelSetup struct {
	Volume  float64
	Pan     float64
	Mute    bool
	Solo    bool
	Effects []effects.Spec
}

// DefaultChannelSetup is unity gain at centre pan.
func DefaultChannelSetup() ChannelSetup {
	return ChannelSetup{Volume: 1}
}

// Apply configures m.
func (ms MixerSetup) Apply(m *mixer.Mixer) {
	if ms.MasterVolume != nil {
		m.SetMasterVolume(*ms.MasterVolume)
	}
	for _, spec := range ms.MasterEffects {
		m.AddMasterEffect(spec)
	}
	for id, ch := range ms.Channels {
		m.SetVolume(id, ch.Volume)
		m.SetPan(id, ch.Pan)
		m.SetMute(id, ch.Mute)
		m.SetSolo(id, ch.Solo)
		for _, spec := range ch.Effects {
			m.AddEffect(id, spec)
		}
	}
}
