package muse

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/alextrzyna/mcp-muse-sub000/internal/analysis"
	"github.com/alextrzyna/mcp-muse-sub000/internal/preset"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
)

func TestRenderLength(t *testing.T) {
	notes := []request.Note{
		{Note: ptr(60), Duration: 0.5},
		{Note: ptr(64), Start: 0.5, Duration: 0.5},
	}
	out, err := Render(notes)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) < sr-100 || len(out) > sr+50 {
		t.Fatalf("len = %d, want about %d", len(out), sr)
	}
	if analysis.HasNonFinite(out) {
		t.Fatal("render produced non-finite samples")
	}
}

func TestRenderPitch(t *testing.T) {
	out, err := Render([]request.Note{{
		Type:      "sine",
		Frequency: ptr(440.0),
		Sustain:   ptr(1.0),
		Duration:  0.5,
	}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := analysis.DominantFrequency(out, sr)
	if err != nil {
		t.Fatal(err)
	}
	if f < 437 || f > 443 {
		t.Fatalf("dominant = %g Hz, want 440", f)
	}
}

func TestRenderSamplesExactLength(t *testing.T) {
	out, err := RenderSamples([]request.Note{{Note: ptr(60), Duration: 0.1}}, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != sr/4 {
		t.Fatalf("len = %d, want %d", len(out), sr/4)
	}
	for i := int(0.11 * sr); i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d = %g after the note ended", i, out[i])
		}
	}
}

func TestRenderDeterministicNoise(t *testing.T) {
	notes := []request.Note{{Type: "pink_noise", Duration: 0.1}, {Type: "snare", Duration: 0.1}}
	a, err := Render(notes, WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Render(notes, WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a, b) {
		t.Fatal("same seed produced different renders")
	}
}

func TestRenderEveryPreset(t *testing.T) {
	lib, err := preset.Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range lib.Names() {
		t.Run(name, func(t *testing.T) {
			out, err := RenderSamples([]request.Note{{Preset: name, Duration: 0.2}}, 0.3,
				WithPresets(lib), WithRand(rand.New(rand.NewSource(1))))
			if err != nil {
				t.Fatal(err)
			}
			if analysis.HasNonFinite(out) {
				t.Fatal("non-finite output")
			}
			if analysis.Peak(out) == 0 {
				t.Fatal("preset is silent")
			}
		})
	}
}

func TestRenderRejectsPresetWithoutLibrary(t *testing.T) {
	if _, err := Render([]request.Note{{Preset: "acid_bass"}}); err == nil {
		t.Fatal("expected error")
	}
}
