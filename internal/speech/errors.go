package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCapability is returned when the platform exposes no recognition facility.
	ErrUnsupportedCapability = errors.New("speech recognition is not supported on this platform")
	// ErrAlreadyListening is returned when capture is requested while a capture is active.
	ErrAlreadyListening = errors.New("speech recognition is already listening")
	// ErrNoSpeech is yielded when capture ends without producing a transcript.
	ErrNoSpeech = errors.New("no speech recognized")
)

// CommandError represents a failure of a platform speech command
type CommandError struct {
	Command string
	Message string
	Cause   error
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech command %s: %s: %v", e.Command, e.Message, e.Cause)
	}
	return fmt.Sprintf("speech command %s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}
