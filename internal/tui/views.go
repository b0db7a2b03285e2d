package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00"))

	hotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A40000"))
)

func render(m Model) string {
	var b strings.Builder
	width := 40
	if m.Width > 20 {
		width = min(m.Width-20, 60)
	}

	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n\n")

	progress := 0.0
	if m.Stats.Total > 0 {
		progress = float64(m.Stats.Elapsed) / float64(m.Stats.Total)
	}
	fmt.Fprintf(&b, "%s %s / %s\n",
		bar(progress, width, barStyle),
		formatDuration(m.Stats.Elapsed), formatDuration(m.Stats.Total))

	db := toDB(m.peakHold)
	level := (db - meterFloorDB) / -meterFloorDB
	style := barStyle
	if db > -1 {
		style = hotStyle
	}
	fmt.Fprintf(&b, "%s %6.1f dBFS\n\n", bar(level, width, style), db)

	fmt.Fprintf(&b, "%s %d/%d   %s %d\n",
		mutedStyle.Render("voices"), m.Stats.Active, m.Stats.MaxVoices,
		mutedStyle.Render("steals"), m.Stats.Steals)

	rows := m.Stats.Voices
	if len(rows) > maxVoiceRows {
		rows = rows[:maxVoiceRows]
	}
	for _, v := range rows {
		fmt.Fprintf(&b, "  #%-4d ch%-2d %-12s %-8s %s\n",
			v.ID, v.Channel, v.Kind, v.State, bar(v.Level, 10, barStyle))
	}
	if extra := len(m.Stats.Voices) - len(rows); extra > 0 {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(fmt.Sprintf("+%d more", extra)))
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q to stop"))
	return b.String()
}

func bar(frac float64, width int, style lipgloss.Style) string {
	frac = min(max(frac, 0), 1)
	filled := int(math.Round(frac * float64(width)))
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func toDB(level float64) float64 {
	if level <= 0 {
		return meterFloorDB
	}
	return max(20*math.Log10(level), meterFloorDB)
}

func formatDuration(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	m := int(d / time.Minute)
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%d:%04.1f", m, s)
}
