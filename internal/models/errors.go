package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousMatch indicates a lookup matched more than one row where
	// uniqueness was expected
	ErrAmbiguousMatch = errors.New("ambiguous match")
)
