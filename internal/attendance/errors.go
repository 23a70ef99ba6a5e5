package attendance

import "errors"

var (
	// ErrAlreadyExists signals a duplicate college or user registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound signals a mutation against a row that does not exist.
	ErrNotFound = errors.New("not found")
)
