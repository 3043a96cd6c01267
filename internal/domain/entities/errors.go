package entities

import (
	"errors"
	"fmt"
)

var (
	ErrPresentationNotFound = errors.New("presentation not found")
	ErrSlideNotFound        = errors.New("slide not found")
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrNoFile               = errors.New("no file provided")
	ErrUnsupportedFile      = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrAllSlidesFailed      = errors.New("every slide failed to render")
)

// InputError reports a problem with user input detected before any network
// call was made.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NewInputError wraps a sentinel as an input error for field.
func NewInputError(field string, err error) *InputError {
	return &InputError{Field: field, Err: err}
}

// IsInputError reports whether err was caused by invalid user input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
