// Package validate holds the error type shared by every settings check, so
// leaf packages can reject bad input without importing the config loader.
package validate

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Error names the offending setting.
type Error struct {
	Field  string
	Value  any
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func Invalid(field string, value any, reason string) error {
	return &Error{Field: field, Value: value, Reason: reason}
}
