package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist under the caller's
	// scope. Ownership mismatches surface as this same error so callers
	// cannot probe for other owners' records.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput marks caller-correctable validation failures. Wrapped
	// errors carry the human-readable reason.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailTaken is returned by user creation when the email is already
	// registered.
	ErrEmailTaken = errors.New("email already registered")
)
