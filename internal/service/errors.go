package service

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches any *TransportError.
	ErrTransport = errors.New("transport error")
	// ErrService matches any *ServiceError.
	ErrService = errors.New("service error")
	// ErrMalformedReport matches any *MalformedReport.
	ErrMalformedReport = errors.New("malformed report")
)

// TransportError represents a failure to reach the interviewer service
type TransportError struct {
	Op    string
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: cannot reach interviewer service at %s: %v", e.Op, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s: cannot reach interviewer service at %s", e.Op, e.URL)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ServiceError represents a request the interviewer service received but rejected
type ServiceError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: interviewer service returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: interviewer service returned %d", e.Op, e.StatusCode)
}

// Is reports whether target is ErrService.
func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}

// MalformedReport represents an end-of-interview payload that could not be decoded into a Report
type MalformedReport struct {
	Message string
	Cause   error
}

func (e *MalformedReport) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed report: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed report: %s", e.Message)
}

func (e *MalformedReport) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrMalformedReport.
func (e *MalformedReport) Is(target error) bool {
	return target == ErrMalformedReport
}

// Retryable reports whether err is a connectivity failure worth retrying as-is.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport)
}
