package freshness

import (
	"errors"
	"fmt"
)

// ErrMalformedTimestamp is returned when If-Modified-Since or a stored
// Last-Modified value cannot be parsed as an HTTP-date.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// TimestampError describes which timestamp failed to parse.
type TimestampError struct {
	// Field is HeaderIfModifiedSince or "Last-Modified".
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrMalformedTimestamp, e.Field, e.Value, e.Err)
}

// Is matches ErrMalformedTimestamp.
func (e *TimestampError) Is(target error) bool {
	return target == ErrMalformedTimestamp
}

// Unwrap returns the underlying parse error.
func (e *TimestampError) Unwrap() error {
	return e.Err
}
