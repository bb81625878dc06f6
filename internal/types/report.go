package types

import (
	"github.com/go-playground/validator/v10"
)

// ScoreMin and ScoreMax bound every report score.
const (
	ScoreMin = 0
	ScoreMax = 10
)

// Report is the end-of-interview evaluation produced by the interviewer service.
// It is received once and never mutated afterwards.
type Report struct {
	TechnicalScore      float64  `json:"technical_score" validate:"min=0,max=10"`
	CommunicationScore  float64  `json:"communication_score" validate:"min=0,max=10"`
	ProblemSolvingScore float64  `json:"problem_solving_score" validate:"min=0,max=10"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
}

// Validate checks the score bounds using the validator.
func (r *Report) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Clone returns a deep copy so callers cannot alias the report's slices.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Strengths = cloneStrings(r.Strengths)
	out.Weaknesses = cloneStrings(r.Weaknesses)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
