package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000/internal/request"
	"github.com/alextrzyna/mcp-muse-sub000/internal/score"
)

var midiFlags struct {
	engine engineFlags
	output string
}

var midiCmd = &cobra.Command{
	Use:   "midi <file.mid>",
	Short: "Convert a Standard MIDI File to JSON notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := midiFlags.engine.scoreOptions()
		if err != nil {
			return err
		}
		notes, err := score.ReadFile(args[0], opts)
		if err != nil {
			return err
		}
		out := os.Stdout
		if midiFlags.output != "" && midiFlags.output != "-" {
			f, err := os.Create(midiFlags.output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(request.Sequence{Notes: notes})
	},
}

func init() {
	// Only the MIDI input flags apply here.
	fs := midiCmd.Flags()
	fs.StringArrayVar(&midiFlags.engine.channelPresets, "channel-preset", nil, `MIDI channel preset, e.g. "0=acid_bass" (repeatable)`)
	fs.IntVar(&midiFlags.engine.transpose, "transpose", 0, "transpose in semitones")
	fs.BoolVar(&midiFlags.engine.noDrums, "no-drums", false, "keep channel 10 as pitched notes")
	fs.StringVarP(&midiFlags.output, "output", "o", "-", "output JSON path")
	rootCmd.AddCommand(midiCmd)
}
