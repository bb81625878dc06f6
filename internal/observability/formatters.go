// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/mock-interview/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxTurnsToShow is how many of the latest turns a transcript box shows
	maxTurnsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// State is the subset of session state shown by PrintState.
type State struct {
	SessionID string
	Phase     string
	Turns     int
	Busy      bool
	Listening bool
}

// PrintState outputs a one-box summary of the session state.
func (p *Printer) PrintState(s State) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:   %s\n", s.SessionID))
	sb.WriteString(fmt.Sprintf("Phase:     %s\n", s.Phase))
	sb.WriteString(fmt.Sprintf("Turns:     %d\n", s.Turns))
	sb.WriteString(fmt.Sprintf("Busy:      %t\n", s.Busy))
	sb.WriteString(fmt.Sprintf("Listening: %t", s.Listening))

	p.printBox("SESSION STATE", sb.String())
}

// PrintTranscript outputs the latest turns of the conversation.
func (p *Printer) PrintTranscript(history []types.Turn) {
	if len(history) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total turns: %d\n\n", len(history)))

	start := 0
	if len(history) > maxTurnsToShow {
		start = len(history) - maxTurnsToShow
		sb.WriteString(fmt.Sprintf("... %d earlier turns\n", start))
	}
	for i := start; i < len(history); i++ {
		turn := history[i]
		text := strings.ReplaceAll(turn.Text, "\n", " ")
		if len([]rune(text)) > 40 {
			text = string([]rune(text)[:37]) + "..."
		}
		sb.WriteString(fmt.Sprintf("%-11s %s", turn.Speaker+":", text))
		if i < len(history)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TRANSCRIPT", sb.String())
}

// PrintReport outputs the raw scores and lists of a decoded report.
func (p *Printer) PrintReport(report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Technical:       %.1f\n", report.TechnicalScore))
	sb.WriteString(fmt.Sprintf("Communication:   %.1f\n", report.CommunicationScore))
	sb.WriteString(fmt.Sprintf("Problem Solving: %.1f\n", report.ProblemSolvingScore))
	sb.WriteString("\n")

	writeList(&sb, "Strengths", report.Strengths)
	writeList(&sb, "Weaknesses", report.Weaknesses)

	p.printBox("INTERVIEW REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}
