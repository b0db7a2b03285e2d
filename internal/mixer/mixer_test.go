package mixer

import (
	"math"
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
)

const sr = 44100

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestHardPannedPairCollapsesToInput(t *testing.T) {
	m := New(sr)
	m.SetPan(0, -1)
	m.SetVolume(0, 1)
	m.SetPan(1, 1)
	m.SetVolume(1, 1)
	out := make([]float64, 64)
	m.Mix([][]float64{constant(64, 1), constant(64, 1)}, out)
	for i, v := range out {
		if math.Abs(v-1) > 1e-12 {
			t.Fatalf("sample %d = %f, want 1", i, v)
		}
	}
	if got := m.MixFrame([]float64{1, 1}); math.Abs(got-1) > 1e-12 {
		t.Fatalf("MixFrame = %f, want 1", got)
	}
}

func TestSoloExcludesOthers(t *testing.T) {
	m := New(sr)
	m.SetSolo(0, true)
	m.SetVolume(1, 2)
	m.SetPan(1, -0.3)
	out := make([]float64, 32)
	m.Mix([][]float64{make([]float64, 32), constant(32, 0.9)}, out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %f, un-soloed channel leaked", i, v)
		}
	}
	if got := m.MixFrame([]float64{0.25, 0.9, 0.9}); got != 0.25 {
		t.Fatalf("MixFrame = %f, want only the soloed channel", got)
	}
}

func TestMuteAndUnregistered(t *testing.T) {
	m := New(sr)
	m.SetMute(1, true)
	got := m.MixFrame([]float64{0.5, 0.7, 0.1})
	// Channel 0 and 2 are unregistered: unity, centre.
	if math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("MixFrame = %f, want 0.6", got)
	}
	if _, ok := m.Lookup(0); ok {
		t.Fatal("mixing registered a channel")
	}
}

func TestGains(t *testing.T) {
	tests := []struct {
		volume, pan float64
		left, right float64
	}{
		{1, 0, 1, 1},
		{1, -1, 1, 0},
		{1, 1, 0, 1},
		{2, 0.5, 1, 2},
		{0.5, -0.5, 0.5, 0.25},
	}
	for _, tt := range tests {
		l, r := gains(tt.volume, tt.pan)
		if math.Abs(l-tt.left) > 1e-12 || math.Abs(r-tt.right) > 1e-12 {
			t.Errorf("gains(%v, %v) = %v, %v; want %v, %v", tt.volume, tt.pan, l, r, tt.left, tt.right)
		}
	}
}

func TestClamping(t *testing.T) {
	m := New(sr)
	m.SetVolume(3, 5)
	m.SetPan(3, -4)
	c := m.Channel(3)
	if c.Volume != MaxVolume || c.Pan != -1 {
		t.Fatalf("volume %f pan %f", c.Volume, c.Pan)
	}
	m.SetMasterVolume(-1)
	if m.MasterVolume() != 0 {
		t.Fatalf("master volume = %f", m.MasterVolume())
	}
}

func TestMasterVolumeAndChain(t *testing.T) {
	m := New(sr)
	m.SetMasterVolume(0.5)
	if got := m.MixFrame([]float64{1}); got != 0.5 {
		t.Fatalf("MixFrame = %f, want 0.5", got)
	}
	spec := effects.DefaultSpec(effects.KindDistortion)
	spec.Intensity = 1
	slot := m.AddMasterEffect(spec)
	if got := m.MixFrame([]float64{1}); got == 0.5 {
		t.Fatal("master chain not applied")
	}
	m.SetMasterBypass(slot, true)
	if got := m.MixFrame([]float64{1}); got != 0.5 {
		t.Fatalf("bypassed master chain changed output: %f", got)
	}
}

func TestChannelEffectAndBypass(t *testing.T) {
	m := New(sr)
	spec := effects.DefaultSpec(effects.KindDelay)
	spec.Time = 0.001
	spec.Intensity = 1
	slot := m.AddEffect(0, spec)

	buf := make([]float64, 100)
	buf[0] = 1
	m.ProcessChannel(0, buf)
	if buf[0] != 0 || buf[44] == 0 {
		t.Fatalf("delay not applied: buf[0]=%f buf[44]=%f", buf[0], buf[44])
	}
	if !m.SetBypass(0, slot, true) {
		t.Fatal("SetBypass failed")
	}
	buf = make([]float64, 100)
	buf[0] = 1
	m.ProcessChannel(0, buf)
	if buf[0] != 1 || len(buf) != 100 {
		t.Fatal("bypassed chain changed the buffer")
	}
	if m.SetBypass(9, 0, true) {
		t.Fatal("SetBypass on unknown channel succeeded")
	}
}

func TestMixShortInputs(t *testing.T) {
	m := New(sr)
	m.Channel(0)
	out := make([]float64, 10)
	m.Mix([][]float64{constant(4, 1), nil}, out)
	for i, v := range out {
		want := 0.0
		if i < 4 {
			want = 1
		}
		if v != want {
			t.Fatalf("sample %d = %f, want %f", i, v, want)
		}
	}
}

func TestGroups(t *testing.T) {
	m := New(sr)
	m.SetGroup("drums", 9, 10)
	if err := m.MuteGroup("drums", true); err != nil {
		t.Fatal(err)
	}
	if c := m.Channel(10); !c.Mute {
		t.Fatal("group mute not applied")
	}
	if err := m.SoloGroup("drums", true); err != nil {
		t.Fatal(err)
	}
	if !m.SoloActive() {
		t.Fatal("solo not active")
	}
	if err := m.MuteGroup("strings", true); err == nil {
		t.Fatal("expected error for unknown group")
	}
	cfg := m.Config()
	cfg.Groups["drums"][0] = 99
	if m.Config().Groups["drums"][0] != 9 {
		t.Fatal("Config returned shared group storage")
	}
}

func TestRouting(t *testing.T) {
	m := New(sr)
	m.Route(1, 4, 5)
	if got := m.Routes(1); len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("Routes(1) = %v", got)
	}
	if ids := m.Channels(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("Channels() = %v", ids)
	}
}

func TestTailSeconds(t *testing.T) {
	m := New(sr)
	if m.TailSeconds() != 0 {
		t.Fatal("empty mixer has a tail")
	}
	m.AddEffect(2, effects.DefaultSpec(effects.KindReverb))
	if m.TailSeconds() <= 0 {
		t.Fatal("reverb channel has no tail")
	}
}
