package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000/internal/preset"
)

var presetsCategory string

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List the built-in presets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := preset.Default()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			p, ok := lib.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", preset.ErrUnknownPreset, args[0])
			}
			printTitle(p.Name)
			printKV("Category", "%s", p.Category)
			printKV("Description", "%s", p.Description)
			printKV("Synth", "%s", p.Params.Kind())
			printKV("Frequency", "%.1f Hz", p.Params.Frequency)
			if vs := p.VariationNames(); len(vs) > 0 {
				printKV("Variations", "%s", strings.Join(vs, ", "))
			}
			return nil
		}
		categories := lib.Categories()
		if presetsCategory != "" {
			categories = []string{strings.ToLower(presetsCategory)}
		}
		for _, c := range categories {
			names := lib.Category(c)
			if len(names) == 0 {
				return fmt.Errorf("no presets in category %q", c)
			}
			printTitle(c)
			for _, name := range names {
				p, _ := lib.Get(name)
				printKV(name, "%s", p.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	presetsCmd.Flags().StringVarP(&presetsCategory, "category", "c", "", "only list one category")
	rootCmd.AddCommand(presetsCmd)
}
