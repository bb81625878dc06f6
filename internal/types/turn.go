// Package types provides type definitions for structured data shared across the interview client.
package types

// Speaker identifies which party produced a conversational turn.
type Speaker string

const (
	// SpeakerCandidate is the person being interviewed.
	SpeakerCandidate Speaker = "candidate"
	// SpeakerInterviewer is the remote interviewer service.
	SpeakerInterviewer Speaker = "interviewer"
)

// Turn is one utterance in the conversation.
// Interviewer text may contain lightweight markdown.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// CandidateTurn builds a turn spoken by the candidate.
func CandidateTurn(text string) Turn {
	return Turn{Speaker: SpeakerCandidate, Text: text}
}

// InterviewerTurn builds a turn spoken by the interviewer.
func InterviewerTurn(text string) Turn {
	return Turn{Speaker: SpeakerInterviewer, Text: text}
}
