package core

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError is an ErrInvalidInput whose Message can be shown to clients.
// The underlying cause stays available for logging through Unwrap.
type InputError struct {
	Message string
	Err     error
}

// NewInputError creates an InputError, err may be nil.
func NewInputError(message string, err error) *InputError {
	return &InputError{Message: message, Err: err}
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}
