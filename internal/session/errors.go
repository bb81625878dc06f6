package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when an operation is attempted while a remote call is outstanding.
	ErrBusy = errors.New("a request is already in progress")
	// ErrInvalidPhase is returned when an operation is not valid in the current phase.
	ErrInvalidPhase = errors.New("operation not valid in current phase")
	// ErrEmptyMessage is returned when the message is empty after trimming whitespace.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotConfirmed is returned when the candidate declines to end the interview.
	ErrNotConfirmed = errors.New("end of interview not confirmed")
	// ErrInvalidResume matches any *ResumeError.
	ErrInvalidResume = errors.New("invalid resume")
)

// TransitionError represents an operation rejected by the state machine.
// Rejections never mutate session state.
type TransitionError struct {
	Op    string
	Phase Phase
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s rejected in phase %s: %v", e.Op, e.Phase, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// ResumeError represents a resume file refused before upload
type ResumeError struct {
	Filename string
	Message  string
}

func (e *ResumeError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("invalid resume %s: %s", e.Filename, e.Message)
	}
	return fmt.Sprintf("invalid resume: %s", e.Message)
}

// Is reports whether target is ErrInvalidResume.
func (e *ResumeError) Is(target error) bool {
	return target == ErrInvalidResume
}
