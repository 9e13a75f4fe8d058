// Package tui presents answers in the terminal: bordered lipgloss blocks
// and an interactive bubbletea question loop.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/application"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 100

var palette = map[string]lipgloss.Color{
	"blue":    lipgloss.Color("12"),
	"green":   lipgloss.Color("10"),
	"cyan":    lipgloss.Color("14"),
	"magenta": lipgloss.Color("13"),
	"yellow":  lipgloss.Color("11"),
	"red":     lipgloss.Color("9"),
}

// ColorFor maps a display hint to a terminal color. Unknown hints get the
// default foreground.
func ColorFor(hint string) lipgloss.Color {
	if c, ok := palette[hint]; ok {
		return c
	}
	return lipgloss.Color("7")
}

// RenderBlock draws one titled, bordered block.
func RenderBlock(b application.Block, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	color := ColorFor(b.Color)
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(b.Title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2)
	return box.Render(title + "\n\n" + b.Body)
}

// RenderBlocks draws blocks top to bottom separated by blank lines.
func RenderBlocks(blocks []application.Block, width int) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = RenderBlock(b, width)
	}
	return strings.Join(parts, "\n\n")
}
