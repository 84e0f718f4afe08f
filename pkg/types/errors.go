package types

import "errors"

// Lookup and validation errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidSource   = errors.New("invalid source kind")
	ErrInvalidName     = errors.New("name must not be empty")
	ErrInvalidSourceID = errors.New("source id must not be empty")
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// ErrMalformedSnapshot is returned when a backup document is structurally
// invalid or carries an unrecognized version. It is never retried.
var ErrMalformedSnapshot = errors.New("malformed snapshot")
