// Package apperr defines the error taxonomy shared by the loader, annotator and term weighting.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrInputFormat   = errors.New("invalid input format")
	ErrConfiguration = errors.New("invalid configuration")
	ErrNotFound      = errors.New("not found")
)

// InputFormatError reports a source line that could not be decoded as a JSON record.
type InputFormatError struct {
	Line int // 1-based
	Err  error
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("line %d: %v: %v", e.Line, ErrInputFormat, e.Err)
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInputFormat) match any InputFormatError.
func (e *InputFormatError) Is(target error) bool {
	return target == ErrInputFormat
}

// Configuration returns an ErrConfiguration wrapped with a formatted message.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound wrapped with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
