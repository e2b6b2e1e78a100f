package service

import (
	"errors"
)

// Error taxonomy of the activity services. Callers classify failures with errors.Is.
var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrNoTrackData      = errors.New("no track data")
	ErrUnknownSport     = errors.New("unknown sport")
	ErrStorage          = errors.New("storage failure")
	ErrIntegrity        = errors.New("integrity violation")
	ErrUnsupportedFile  = errors.New("unsupported file")
	ErrInvalidInput     = errors.New("invalid input")
	ErrActivityNotFound = errors.New("activity not found")
)

// Statuses reported alongside an ActivityError
const (
	StatusError = "error"
	StatusFail  = "fail"
)

// ActivityError carries a user-facing message together with its classification
type ActivityError struct {
	Status  string
	Message string
	Kind    error
	Err     error
}

func newActivityError(kind error, message string, cause error) *ActivityError {
	status := StatusError
	if kind == ErrStorage || kind == ErrIntegrity {
		status = StatusFail
	}
	return &ActivityError{Status: status, Message: message, Kind: kind, Err: cause}
}

func (e *ActivityError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause
func (e *ActivityError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason returns the message shown to users for err
func Reason(err error) string {
	var ae *ActivityError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
