package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4")
	errorColor   = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

var colorOut = term.IsTerminal(int(os.Stdout.Fd()))

func styled(s lipgloss.Style, text string) string {
	if !colorOut {
		return text
	}
	return s.Render(text)
}

func printTitle(text string) {
	fmt.Println(styled(titleStyle, text))
}

func printKV(key string, format string, args ...any) {
	fmt.Printf("%s %s\n", styled(keyStyle, fmt.Sprintf("%-12s", key+":")), styled(valueStyle, fmt.Sprintf(format, args...)))
}

func printError(message string) {
	text := "Error:"
	if term.IsTerminal(int(os.Stderr.Fd())) {
		text = errorStyle.Render(text)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", text, message)
}
