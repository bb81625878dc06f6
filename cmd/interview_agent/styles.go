package main

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#7C3AED"
	secondaryColor = "#10B981"
	errorColor     = "#EF4444"
	dimColor       = "#6B7280"
)

var (
	interviewerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(primaryColor)).
				Bold(true)

	candidateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))
)
