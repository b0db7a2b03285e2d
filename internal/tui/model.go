// Package tui provides the Bubbletea live meter shown by "muse play --tui".
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	refreshInterval = 60 * time.Millisecond
	maxVoiceRows    = 8
	meterFloorDB    = -60.0
)

// Stats is one snapshot of playback state.
type Stats struct {
	Elapsed   time.Duration
	Total     time.Duration
	Active    int
	MaxVoices int
	Steals    int
	Peak      float64 // linear, since the previous snapshot
	Voices    []VoiceRow
	Done      bool
}

type VoiceRow struct {
	ID      uint64
	Kind    string
	State   string
	Channel int
	Level   float64
}

// Model is the Bubbletea model for the playback meter.
type Model struct {
	Title string
	Stats Stats

	// Quit is set when the user asked to stop rather than playback ending.
	Quit bool

	poll     func() Stats
	peakHold float64
	Width    int
}

type tickMsg time.Time

// NewModel creates a meter that polls for fresh Stats on every frame.
func NewModel(title string, poll func() Stats) Model {
	return Model{Title: title, poll: poll}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case tickMsg:
		if m.poll != nil {
			m.Stats = m.poll()
		}
		// Hold peaks and let them fall back slowly.
		m.peakHold = max(m.Stats.Peak, m.peakHold*0.9)
		if m.Stats.Done {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	return render(m)
}
