package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000"
	"github.com/alextrzyna/mcp-muse-sub000/internal/preset"
	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/score"
	"github.com/alextrzyna/mcp-muse-sub000/internal/voice"
)

// engineFlags are shared by every command that renders audio.
type engineFlags struct {
	sampleRate   int
	strategy     string
	maxVoices    int
	seed         int64
	onePole      bool
	masterVolume float64
	masterFX     []string
	channelFX    []string
	pans         []string
	volumes      []string
	mutes        []int
	solos        []int

	// MIDI input
	channelPresets []string
	transpose      int
	noDrums        bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.sampleRate, "sample-rate", muse.DefaultSampleRate, "output sample rate")
	fs.StringVar(&f.strategy, "steal", "oldest-first", "voice stealing: oldest-first|lowest-priority|lowest-volume")
	fs.IntVar(&f.maxVoices, "max-voices", voice.MaxVoices, "polyphony ceiling")
	fs.Int64Var(&f.seed, "seed", 0, "seed for noise and grain jitter (0 = random)")
	fs.BoolVar(&f.onePole, "one-pole", false, "use cheaper one-pole voice filters")
	fs.Float64Var(&f.masterVolume, "master-volume", 1, "mixer master volume (0-2)")
	fs.StringArrayVar(&f.masterFX, "master-fx", nil, `master effect, e.g. "reverb 0.4,0.8" (repeatable)`)
	fs.StringArrayVar(&f.channelFX, "channel-fx", nil, `channel effect, e.g. "2:delay 0.3,0.25" (repeatable)`)
	fs.StringArrayVar(&f.pans, "pan", nil, `channel pan, e.g. "1:-0.5" (repeatable)`)
	fs.StringArrayVar(&f.volumes, "volume", nil, `channel volume, e.g. "1:1.5" (repeatable)`)
	fs.IntSliceVar(&f.mutes, "mute", nil, "channels to mute")
	fs.IntSliceVar(&f.solos, "solo", nil, "channels to solo")
	fs.StringArrayVar(&f.channelPresets, "channel-preset", nil, `MIDI channel preset, e.g. "0=acid_bass" (repeatable)`)
	fs.IntVar(&f.transpose, "transpose", 0, "MIDI transpose in semitones")
	fs.BoolVar(&f.noDrums, "no-drums", false, "play MIDI channel 10 as pitched notes")
}

func (f *engineFlags) options() ([]muse.Option, error) {
	strategy, err := voice.ParseStealStrategy(f.strategy)
	if err != nil {
		return nil, err
	}
	lib, err := preset.Default()
	if err != nil {
		return nil, err
	}
	setup, err := f.mixerSetup()
	if err != nil {
		return nil, err
	}
	opts := []muse.Option{
		muse.WithSampleRate(f.sampleRate),
		muse.WithStealStrategy(strategy),
		muse.WithMaxVoices(f.maxVoices),
		muse.WithPresets(lib),
		muse.WithLogger(logger),
		muse.WithMixer(setup.Apply),
	}
	if f.seed != 0 {
		opts = append(opts, muse.WithRand(rand.New(rand.NewSource(f.seed))))
	}
	if f.onePole {
		opts = append(opts, muse.WithOnePoleFilters())
	}
	return opts, nil
}

func (f *engineFlags) mixerSetup() (muse.MixerSetup, error) {
	master := f.masterVolume
	setup := muse.MixerSetup{
		MasterVolume: &master,
		Channels:     make(map[int]muse.ChannelSetup),
	}
	channel := func(id int) muse.ChannelSetup {
		if c, ok := setup.Channels[id]; ok {
			return c
		}
		return muse.DefaultChannelSetup()
	}
	for _, d := range f.masterFX {
		spec, err := muse.ParseEffect(d)
		if err != nil {
			return setup, fmt.Errorf("--master-fx: %w", err)
		}
		setup.MasterEffects = append(setup.MasterEffects, spec)
	}
	for _, d := range f.channelFX {
		id, spec, err := muse.ParseChannelEffect(d)
		if err != nil {
			return setup, fmt.Errorf("--channel-fx: %w", err)
		}
		c := channel(id)
		c.Effects = append(c.Effects, spec)
		setup.Channels[id] = c
	}
	for _, kv := range f.pans {
		id, v, err := channelValue(kv)
		if err != nil {
			return setup, fmt.Errorf("--pan: %w", err)
		}
		c := channel(id)
		c.Pan = v
		setup.Channels[id] = c
	}
	for _, kv := range f.volumes {
		id, v, err := channelValue(kv)
		if err != nil {
			return setup, fmt.Errorf("--volume: %w", err)
		}
		c := channel(id)
		c.Volume = v
		setup.Channels[id] = c
	}
	for _, id := range f.mutes {
		c := channel(id)
		c.Mute = true
		setup.Channels[id] = c
	}
	for _, id := range f.solos {
		c := channel(id)
		c.Solo = true
		setup.Channels[id] = c
	}
	return setup, nil
}

func channelValue(s string) (int, float64, error) {
	ch, val, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q: want channel:value", s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(ch))
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", s, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", s, err)
	}
	return id, v, nil
}

func (f *engineFlags) scoreOptions() (score.Options, error) {
	opts := score.Options{
		Presets:   make(map[int]string),
		Drums:     !f.noDrums,
		Transpose: f.transpose,
	}
	for _, kv := range f.channelPresets {
		ch, name, ok := strings.Cut(kv, "=")
		if !ok {
			return opts, fmt.Errorf("--channel-preset %q: want channel=preset", kv)
		}
		id, err := strconv.Atoi(strings.TrimSpace(ch))
		if err != nil {
			return opts, fmt.Errorf("--channel-preset %q: %w", kv, err)
		}
		opts.Presets[id] = strings.TrimSpace(name)
	}
	return opts, nil
}

func isMIDI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return true
	}
	return false
}

// loadNotes reads notes from a MIDI or JSON file, or JSON on stdin when path
// is "-" or empty.
func (f *engineFlags) loadNotes(path string) ([]request.Note, error) {
	if isMIDI(path) {
		opts, err := f.scoreOptions()
		if err != nil {
			return nil, err
		}
		return score.ReadFile(path, opts)
	}
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	notes, err := request.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return notes, nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
