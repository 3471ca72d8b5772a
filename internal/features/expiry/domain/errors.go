package domain

import "errors"

// ErrInvalidReferenceInstant is returned when a caller-supplied reference instant cannot be parsed.
var ErrInvalidReferenceInstant = errors.New("invalid reference instant")
