package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000"
	"github.com/alextrzyna/mcp-muse-sub000/internal/analysis"
)

var bands = []struct {
	name   string
	lo, hi float64
}{
	{"sub", 20, 60},
	{"bass", 60, 250},
	{"low-mid", 250, 1000},
	{"high-mid", 1000, 4000},
	{"presence", 4000, 8000},
	{"air", 8000, 20000},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Report level and spectrum of a PCM or float WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		samples, sr, channels, err := muse.DecodeWAV(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		mono := muse.Mono(samples, channels)
		printTitle(args[0])
		printKV("Channels", "%d", channels)
		printReport(analysis.Analyze(mono, sr), sr)

		spec, err := analysis.NewSpectrum(mono, sr)
		if err != nil {
			return fmt.Errorf("%s: spectrum: %w", args[0], err)
		}
		total := spec.TotalEnergy()
		if total <= 0 {
			return nil
		}
		fmt.Println()
		printTitle("Bands")
		for _, b := range bands {
			printKV(b.name, "%5.1f%%", 100*spec.BandEnergy(b.lo, b.hi)/total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
