package seats

import "errors"

var (
	// ErrInvalidSeatNumber is returned when a seat number is not a well-formed integer
	ErrInvalidSeatNumber = errors.New("invalid seat number")

	// ErrSeatNotFound is returned when no seat in the roster has the requested number
	ErrSeatNotFound = errors.New("seat not found")
)
