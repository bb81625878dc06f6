// Package presenter turns an interview report into the summary shown to the candidate.
package presenter

import (
	"github.com/jonathan/mock-interview/internal/types"
)

// Axis labels in display order.
const (
	AxisTechnical      = "Technical"
	AxisCommunication  = "Communication"
	AxisProblemSolving = "Problem Solving"
	AxisConfidence     = "Confidence"
	AxisDepth          = "Depth"
)

// StartNewLabel is the label of the action that begins a fresh interview.
const StartNewLabel = "Start New Interview"

// Axis is one labeled dimension of the score chart.
type Axis struct {
	Label string
	Value float64
}

// Summary is the display model for a report.
type Summary struct {
	Axes       []Axis
	Feedback   string
	Strengths  []string
	Weaknesses []string
}

// Present builds the five-axis summary for a report.
//
// The first three axes are the reported scores. Confidence and Depth are
// derived for display only: Confidence is the mean of the technical and
// communication scores, Depth the mean of the technical and problem-solving
// scores. They carry no meaning beyond the chart. Every value is clamped to
// the score range.
func Present(report types.Report) Summary {
	tech := report.TechnicalScore
	comm := report.CommunicationScore
	ps := report.ProblemSolvingScore

	return Summary{
		Axes: []Axis{
			{Label: AxisTechnical, Value: clamp(tech)},
			{Label: AxisCommunication, Value: clamp(comm)},
			{Label: AxisProblemSolving, Value: clamp(ps)},
			{Label: AxisConfidence, Value: clamp((tech + comm) / 2)},
			{Label: AxisDepth, Value: clamp((tech + ps) / 2)},
		},
		Feedback:   report.Feedback,
		Strengths:  append([]string{}, report.Strengths...),
		Weaknesses: append([]string{}, report.Weaknesses...),
	}
}

// Values returns the axis values in display order.
func (s Summary) Values() []float64 {
	out := make([]float64, len(s.Axes))
	for i, a := range s.Axes {
		out[i] = a.Value
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < types.ScoreMin:
		return types.ScoreMin
	case v > types.ScoreMax:
		return types.ScoreMax
	default:
		return v
	}
}
