package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alextrzyna/mcp-muse-sub000/internal/analysis"
)

var batchFlags struct {
	engine engineFlags
	outDir string
	jobs   int
	wav    wavFlags
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Render many note files to WAV in parallel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(batchFlags.outDir, 0o755); err != nil {
			return err
		}
		reports := make([]analysis.Report, len(args))
		outs := make([]string, len(args))

		var g errgroup.Group
		g.SetLimit(max(batchFlags.jobs, 1))
		for i, in := range args {
			base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			outs[i] = filepath.Join(batchFlags.outDir, base+".wav")
			g.Go(func() error {
				r, err := renderFile(&batchFlags.engine, in, outs[i], 0, batchFlags.wav)
				if err != nil {
					return fmt.Errorf("%s: %w", in, err)
				}
				reports[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, r := range reports {
			printKV(filepath.Base(outs[i]), "%.2fs peak %.1f dBFS", r.Seconds, analysis.DBFS(r.Peak))
		}
		return nil
	},
}

func init() {
	batchFlags.engine.register(batchCmd)
	batchCmd.Flags().StringVarP(&batchFlags.outDir, "out-dir", "d", ".", "directory for rendered WAV files")
	batchCmd.Flags().IntVarP(&batchFlags.jobs, "jobs", "j", runtime.NumCPU(), "files rendered at once")
	batchFlags.wav.register(batchCmd)
	rootCmd.AddCommand(batchCmd)
}
