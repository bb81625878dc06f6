package presenter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	primaryColor   = "#7C3AED"
	secondaryColor = "#10B981"
	warningColor   = "#F59E0B"
	dimColor       = "#6B7280"

	// barWidth is the number of cells a full-scale bar occupies
	barWidth   = 20
	labelWidth = 16
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Underline(true)

	barFullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	weaknessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)
)

// Render writes the summary as a boxed terminal view: one bar per axis, the
// feedback paragraph, then strengths and areas for improvement in order.
func Render(w io.Writer, s Summary) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Interview Report"))
	sb.WriteString("\n\n")

	for _, a := range s.Axes {
		sb.WriteString(fmt.Sprintf("%-*s %s %4.1f\n", labelWidth, a.Label, bar(a.Value), a.Value))
	}

	if s.Feedback != "" {
		sb.WriteString("\n")
		sb.WriteString(headingStyle.Render("Feedback"))
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(barWidth + labelWidth + 6).Render(s.Feedback))
		sb.WriteString("\n")
	}

	writeSection(&sb, "Strengths", "+", s.Strengths, barFullStyle)
	writeSection(&sb, "Areas for Improvement", "-", s.Weaknesses, weaknessStyle)

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimSuffix(sb.String(), "\n")))
	return err
}

// RenderAction writes the closing action prompt.
func RenderAction(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s\n", titleStyle.Render("→"), StartNewLabel)
	return err
}

func writeSection(sb *strings.Builder, title, marker string, items []string, style lipgloss.Style) {
	sb.WriteString("\n")
	sb.WriteString(headingStyle.Render(title))
	sb.WriteString("\n")
	if len(items) == 0 {
		sb.WriteString(barEmptyStyle.Render("  (none)"))
		sb.WriteString("\n")
		return
	}
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("  %s %s\n", style.Render(marker), item))
	}
}

// bar draws a horizontal bar scaled to the score range.
func bar(value float64) string {
	filled := int(math.Round(value / 10 * barWidth))
	filled = max(0, min(filled, barWidth))
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}
