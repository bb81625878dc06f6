package session

// Phase is the macro-state of an interview session.
type Phase int

const (
	// PhaseIntake waits for the candidate's resume.
	PhaseIntake Phase = iota
	// PhaseConversing exchanges turns with the interviewer.
	PhaseConversing
	// PhaseEnding is the transient state while the report is requested.
	// It reverts to PhaseConversing on failure.
	PhaseEnding
	// PhaseReported is terminal: the report has been received.
	PhaseReported
)

func (p Phase) String() string {
	switch p {
	case PhaseIntake:
		return "intake"
	case PhaseConversing:
		return "conversing"
	case PhaseEnding:
		return "ending"
	case PhaseReported:
		return "reported"
	default:
		return "unknown"
	}
}
