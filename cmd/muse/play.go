package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alextrzyna/mcp-muse-sub000"
	"github.com/alextrzyna/mcp-muse-sub000/internal/audio"
	"github.com/alextrzyna/mcp-muse-sub000/internal/tui"
)

var playFlags struct {
	engine  engineFlags
	backend string
	volume  float64
	meter   bool
	events  bool
}

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play notes through the audio device",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

func init() {
	playFlags.engine.register(playCmd)
	playCmd.Flags().StringVar(&playFlags.backend, "backend", "ebiten", "audio backend: ebiten|oto|null")
	playCmd.Flags().Float64Var(&playFlags.volume, "gain", 1, "player output gain")
	playCmd.Flags().BoolVar(&playFlags.meter, "tui", false, "show a live voice and level meter")
	playCmd.Flags().BoolVar(&playFlags.events, "events", false, "print voice start and end events")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	in := argOrStdin(args)
	backend, err := audio.ParseBackend(playFlags.backend)
	if err != nil {
		return err
	}
	notes, err := playFlags.engine.loadNotes(in)
	if err != nil {
		return err
	}
	opts, err := playFlags.engine.options()
	if err != nil {
		return err
	}
	pl, err := muse.NewPlayer(append(opts, muse.WithBackend(backend))...)
	if err != nil {
		return err
	}
	pl.SetMasterVolume(playFlags.volume)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch := pl.Watch()
	if err := pl.Play(notes); err != nil {
		return err
	}
	logger.Info("playing", "input", displayName(in), "notes", len(notes), "backend", backend)

	if playFlags.meter {
		return runMeter(ctx, pl, displayName(in))
	}
	for {
		select {
		case <-ctx.Done():
			return pl.Stop()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			switch event.Kind {
			case muse.EventPlaybackEnded:
				fmt.Println("playback completed")
				pl.Wait()
				return nil
			case muse.EventVoiceStarted:
				if playFlags.events {
					fmt.Printf("start %d %s note=%d ch=%d\n", event.VoiceID, event.Voice.Kind, event.Voice.Note, event.Voice.Channel)
				}
			case muse.EventVoiceEnded:
				if playFlags.events {
					fmt.Printf("end   %d\n", event.VoiceID)
				}
			}
		}
	}
}

func runMeter(ctx context.Context, pl *muse.Player, title string) error {
	prog := tea.NewProgram(tui.NewModel(title, func() tui.Stats { return meterStats(pl) }))
	go func() {
		<-ctx.Done()
		prog.Quit()
	}()
	final, err := prog.Run()
	if err != nil {
		_ = pl.Stop()
		return err
	}
	if m, ok := final.(tui.Model); ok && m.Quit {
		return pl.Stop()
	}
	if ctx.Err() != nil {
		return pl.Stop()
	}
	pl.Wait()
	return nil
}

func meterStats(pl *muse.Player) tui.Stats {
	st, err := pl.Stats()
	if errors.Is(err, muse.ErrNotPlaying) {
		return tui.Stats{Done: true}
	}
	out := tui.Stats{
		Elapsed:   st.Elapsed,
		Total:     st.Elapsed + st.Remaining,
		Active:    st.Active,
		MaxVoices: st.MaxVoices,
		Steals:    int(st.Steals),
		Peak:      st.Peak,
		Done:      st.Done,
	}
	for _, v := range st.Voices {
		out.Voices = append(out.Voices, tui.VoiceRow{
			ID:      v.ID,
			Kind:    v.Kind.String(),
			State:   v.State.String(),
			Channel: v.Channel,
			Level:   v.Envelope,
		})
	}
	return out
}
