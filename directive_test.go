package muse

import (
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
	"github.com/alextrzyna/mcp-muse-sub000/internal/mixer"
)

func TestParseEffect(t *testing.T) {
	tests := []struct {
		in    string
		check func(effects.Spec) bool
		err   bool
	}{
		{"reverb", func(s effects.Spec) bool { return s == effects.DefaultSpec(effects.KindReverb) }, false},
		{"{reverb 0.4,0.8}", func(s effects.Spec) bool { return s.Intensity == 0.4 && s.RoomSize == 0.8 }, false},
		{"delay 0.3, 0.5, 0.6", func(s effects.Spec) bool { return s.Time == 0.5 && s.Feedback == 0.6 }, false},
		{"delay 0.3,,0.2", func(s effects.Spec) bool { return s.Time == 0.25 && s.Feedback == 0.2 }, false},
		{"compressor 1,-24,8", func(s effects.Spec) bool { return s.Threshold == -24 && s.Ratio == 8 }, false},
		{"eq5 1,1,2,1,0.5", func(s effects.Spec) bool { return s.Gains[2] == 2 && s.Gains[4] == 0.5 }, false},
		{"", nil, true},
		{"flanger 1", nil, true},
		{"chorus 0.5,1,1,0.2,9", nil, true},
		{"distortion x", nil, true},
		{"reverb 3", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEffect(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if err == nil && !tt.check(got) {
				t.Fatalf("spec = %+v", got)
			}
		})
	}
}

func TestParseChannelEffect(t *testing.T) {
	ch, spec, err := ParseChannelEffect("3:chorus 0.7")
	if err != nil {
		t.Fatal(err)
	}
	if ch != 3 || spec.Kind != effects.KindChorus || spec.Intensity != 0.7 {
		t.Fatalf("got %d %+v", ch, spec)
	}
	for _, bad := range []string{"chorus", "x:chorus", "1:nope"} {
		if _, _, err := ParseChannelEffect(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestMixerSetupApply(t *testing.T) {
	setup := MixerSetup{
		MasterVolume:  ptr(0.8),
		MasterEffects: []effects.Spec{effects.DefaultSpec(effects.KindCompressor)},
		Channels: map[int]ChannelSetup{
			1: {Volume: 1.5, Pan: -0.5, Effects: []effects.Spec{effects.DefaultSpec(effects.KindDelay)}},
			2: {Volume: 1, Mute: true},
		},
	}
	m := mixer.New(sr)
	setup.Apply(m)
	if m.MasterVolume() != 0.8 {
		t.Fatalf("master volume = %g", m.MasterVolume())
	}
	c, ok := m.Lookup(1)
	if !ok || c.Volume != 1.5 || c.Pan != -0.5 || c.Effects().Len() != 1 {
		t.Fatalf("channel 1 = %+v", c)
	}
	if c, _ := m.Lookup(2); !c.Mute {
		t.Fatal("channel 2 not muted")
	}
	if DefaultChannelSetup().Volume != 1 {
		t.Fatal("default channel volume should be unity")
	}
}

func TestMixerSetupMasterVolume(t *testing.T) {
	m := mixer.New(sr)
	MixerSetup{}.Apply(m)
	if m.MasterVolume() != 1 {
		t.Fatalf("unset master volume = %g, want the default 1", m.MasterVolume())
	}
	MixerSetup{MasterVolume: ptr(0.0)}.Apply(m)
	if m.MasterVolume() != 0 {
		t.Fatalf("master volume = %g, want 0", m.MasterVolume())
	}
}
