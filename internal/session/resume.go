package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/mock-interview/internal/types"
)

// MaxResumeBytes is the largest resume accepted for upload.
const MaxResumeBytes = 10 << 20

// validateResume applies the intake rules: a non-empty PDF no larger than MaxResumeBytes.
func validateResume(resume types.Resume) error {
	if !strings.EqualFold(filepath.Ext(resume.Filename), ".pdf") {
		return &ResumeError{Filename: resume.Filename, Message: "only PDF files are allowed"}
	}
	if len(resume.Content) == 0 {
		return &ResumeError{Filename: resume.Filename, Message: "file is empty"}
	}
	if len(resume.Content) > MaxResumeBytes {
		return &ResumeError{
			Filename: resume.Filename,
			Message:  fmt.Sprintf("file is %d bytes, limit is %d", len(resume.Content), MaxResumeBytes),
		}
	}
	return nil
}
