package engine

import (
	"errors"
	"fmt"
)

// ValidationError is a user-correctable rule violation. The whole unit of
// work that produced it must be discarded.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConversionError reports a quantity that cannot be expressed in the
// requested unit, usually because of inconsistent master data.
type ConversionError struct {
	Msg string
	Err error
}

func (e *ConversionError) Error() string {
	return e.Msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConversion reports whether err is or wraps a ConversionError.
func IsConversion(err error) bool {
	var c *ConversionError
	return errors.As(err, &c)
}
