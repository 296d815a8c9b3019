// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/lanewatch/internal/detect"
)

// Tokyo Night color palette.
var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorRed    = lipgloss.Color("#d75f6b")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorGray   = lipgloss.Color("#565f89")
	ColorWhite  = lipgloss.Color("#c0caf5")
)

// Per-status styles for lane status display.
var statusStyles = map[detect.Status]lipgloss.Style{
	detect.StatusIdle:    lipgloss.NewStyle().Foreground(ColorGray),
	detect.StatusWorking: lipgloss.NewStyle().Foreground(ColorGreen).Bold(true),
	detect.StatusWaiting: lipgloss.NewStyle().Foreground(ColorYellow).Bold(true),
	detect.StatusDone:    lipgloss.NewStyle().Foreground(ColorBlue),
	detect.StatusError:   lipgloss.NewStyle().Foreground(ColorRed).Bold(true),
}

// LaneStyle styles lane identifiers.
var LaneStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Bold(true)

// DimStyle styles secondary text.
var DimStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// Status renders a status value in its color.
func Status(s detect.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}
