package cases

import "errors"

var (
	// ErrNotFound is returned when no case matches the lookup.
	ErrNotFound = errors.New("case not found")

	// ErrMissingReference is returned when a draft has no reference id.
	ErrMissingReference = errors.New("reference is required")

	// ErrInvalidKind is returned for unknown case kinds.
	ErrInvalidKind = errors.New("invalid case kind")

	// ErrMissingCitizen is returned when citizen name or phone is absent.
	ErrMissingCitizen = errors.New("citizen name and phone are required")
)
