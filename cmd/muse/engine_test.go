package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000"
	"github.com/alextrzyna/mcp-muse-sub000/internal/effects"
)

func TestMixerSetupFromFlags(t *testing.T) {
	f := engineFlags{
		masterVolume: 0.8,
		masterFX:     []string{"reverb 0.4,0.8"},
		channelFX:    []string{"2:delay 0.3,0.25"},
		pans:         []string{"1:-0.5"},
		volumes:      []string{"1:1.5"},
		mutes:        []int{3},
		solos:        []int{2},
	}
	setup, err := f.mixerSetup()
	if err != nil {
		t.Fatalf("mixerSetup: %v", err)
	}
	if setup.MasterVolume == nil || *setup.MasterVolume != 0.8 || len(setup.MasterEffects) != 1 || setup.MasterEffects[0].Kind != effects.KindReverb {
		t.Fatalf("master = %+v", setup)
	}
	if c := setup.Channels[1]; c.Pan != -0.5 || c.Volume != 1.5 {
		t.Errorf("channel 1 = %+v", c)
	}
	if c := setup.Channels[2]; !c.Solo || c.Volume != 1 || len(c.Effects) != 1 || c.Effects[0].Kind != effects.KindDelay {
		t.Errorf("channel 2 = %+v", c)
	}
	if c := setup.Channels[3]; !c.Mute || c.Volume != 1 {
		t.Errorf("channel 3 = %+v", c)
	}
}

func TestMasterVolumeZeroIsKept(t *testing.T) {
	setup, err := (&engineFlags{masterVolume: 0}).mixerSetup()
	if err != nil {
		t.Fatalf("mixerSetup: %v", err)
	}
	if setup.MasterVolume == nil || *setup.MasterVolume != 0 {
		t.Fatalf("master volume = %v, want 0", setup.MasterVolume)
	}
}

func TestMixerSetupRejectsBadValues(t *testing.T) {
	cases := []engineFlags{
		{pans: []string{"1"}},
		{volumes: []string{"x:1"}},
		{pans: []string{"1:loud"}},
		{masterFX: []string{"flanger"}},
		{channelFX: []string{"reverb"}},
	}
	for i, f := range cases {
		if _, err := f.mixerSetup(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestScoreOptions(t *testing.T) {
	f := engineFlags{channelPresets: []string{"0=acid_bass", " 4 = warm_pad"}, transpose: -12, noDrums: true}
	opts, err := f.scoreOptions()
	if err != nil {
		t.Fatalf("scoreOptions: %v", err)
	}
	if opts.Drums || opts.Transpose != -12 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Presets[0] != "acid_bass" || opts.Presets[4] != "warm_pad" {
		t.Errorf("presets = %v", opts.Presets)
	}
	if _, err := (&engineFlags{channelPresets: []string{"acid_bass"}}).scoreOptions(); err == nil {
		t.Error("expected error for missing channel")
	}
}

func TestLoadNotesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.json")
	doc := `{"notes":[{"note":60,"start_time":0,"duration":0.5},{"preset":"kick_808","start_time":0.5,"duration":0.3}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	var f engineFlags
	notes, err := f.loadNotes(path)
	if err != nil {
		t.Fatalf("loadNotes: %v", err)
	}
	if len(notes) != 2 || notes[1].Preset != "kick_808" {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestOptionsBuild(t *testing.T) {
	f := engineFlags{sampleRate: 22050, strategy: "volume", maxVoices: 8, seed: 7}
	opts, err := f.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts) != 7 {
		t.Errorf("len(opts) = %d, want 7", len(opts))
	}
	f.strategy = "random"
	if _, err := f.options(); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestWriteWAVFormats(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.25}
	for _, pcm16 := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "out.wav")
		if err := writeWAV(path, samples, 8000, 1, pcm16); err != nil {
			t.Fatalf("pcm16=%v: writeWAV: %v", pcm16, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		got, rate, channels, err := muse.DecodeWAV(data)
		if err != nil {
			t.Fatalf("pcm16=%v: DecodeWAV: %v", pcm16, err)
		}
		if rate != 8000 || channels != 1 || len(got) != len(samples) {
			t.Fatalf("pcm16=%v: decoded %d samples @ %d x%d", pcm16, len(got), rate, channels)
		}
		for i := range got {
			if math.Abs(float64(got[i]-samples[i])) > 1.0/16384 {
				t.Errorf("pcm16=%v: sample %d = %v, want %v", pcm16, i, got[i], samples[i])
			}
		}
	}
}
