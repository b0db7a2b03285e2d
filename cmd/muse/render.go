package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000"
	"github.com/alextrzyna/mcp-muse-sub000/internal/analysis"
)

var renderFlags struct {
	engine  engineFlags
	output  string
	seconds float64
	wav     wavFlags
}

// wavFlags choose the layout of rendered files.
type wavFlags struct {
	stereo bool
	pcm16  bool
}

func (w *wavFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&w.stereo, "stereo", false, "write two identical channels")
	cmd.Flags().BoolVar(&w.pcm16, "pcm16", false, "write 16-bit PCM instead of 32-bit float")
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render notes to a float32 WAV file",
	Long: `Render a JSON note file or a Standard MIDI File offline.

With no file, JSON is read from stdin. Rendering runs until the last voice and
every effect tail has died away, unless --seconds fixes the length.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderFlags.engine.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderFlags.output, "output", "o", "", "output WAV path (default: input name with .wav)")
	renderCmd.Flags().Float64Var(&renderFlags.seconds, "seconds", 0, "render exactly this many seconds")
	renderFlags.wav.register(renderCmd)
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	in := argOrStdin(args)
	out := renderFlags.output
	if out == "" {
		if in == "-" {
			return fmt.Errorf("--output is required when reading stdin")
		}
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".wav"
	}
	report, err := renderFile(&renderFlags.engine, in, out, renderFlags.seconds, renderFlags.wav)
	if err != nil {
		return err
	}
	printTitle("Rendered " + out)
	printReport(report, renderFlags.engine.sampleRate)
	return nil
}

// renderFile renders in to a WAV at out and returns an analysis of the mono
// mix.
func renderFile(f *engineFlags, in, out string, seconds float64, w wavFlags) (analysis.Report, error) {
	notes, err := f.loadNotes(in)
	if err != nil {
		return analysis.Report{}, err
	}
	opts, err := f.options()
	if err != nil {
		return analysis.Report{}, err
	}
	started := time.Now()
	var samples []float32
	if seconds > 0 {
		samples, err = muse.RenderSamples(notes, seconds, opts...)
	} else {
		samples, err = muse.Render(notes, opts...)
	}
	if err != nil {
		return analysis.Report{}, fmt.Errorf("%s: %w", displayName(in), err)
	}
	logger.Debug("rendered", "input", displayName(in), "notes", len(notes), "samples", len(samples), "took", time.Since(started))

	channels := 1
	data := samples
	if w.stereo {
		channels = 2
		data = make([]float32, 2*len(samples))
		for i, s := range samples {
			data[2*i] = s
			data[2*i+1] = s
		}
	}
	if err := writeWAV(out, data, f.sampleRate, channels, w.pcm16); err != nil {
		return analysis.Report{}, err
	}
	return analysis.Analyze(samples, f.sampleRate), nil
}

func writeWAV(path string, samples []float32, sampleRate, channels int, pcm16 bool) error {
	if !pcm16 {
		return os.WriteFile(path, muse.EncodeWAVFloat32LE(samples, sampleRate, channels), 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := muse.EncodeWAVPCM16(f, samples, sampleRate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(r analysis.Report, sampleRate int) {
	printKV("Length", "%.3fs (%d samples @ %d Hz)", r.Seconds, r.Samples, sampleRate)
	printKV("Peak", "%.4f (%.1f dBFS)", r.Peak, analysis.DBFS(r.Peak))
	printKV("RMS", "%.4f (%.1f dBFS)", r.RMS, analysis.DBFS(r.RMS))
	if r.Dominant > 0 {
		printKV("Dominant", "%.1f Hz", r.Dominant)
		printKV("Centroid", "%.1f Hz", r.Centroid)
	}
	if r.NonFinite {
		printKV("Warning", "output contains NaN or Inf")
	}
}
