package booking

import "errors"

var (
	// ErrUnauthorized means the caller's role or identity does not permit
	// the requested operation on this booking.
	ErrUnauthorized = errors.New("caller is not allowed to perform this operation")

	// ErrInvalidTransition means the booking's current status does not
	// permit the requested operation.
	ErrInvalidTransition = errors.New("status does not permit this transition")

	// ErrInvalidTimeRange means start/end are unparseable or start >= end.
	ErrInvalidTimeRange = errors.New("invalid booking time range")

	// ErrInvalidPrice means the total price is negative.
	ErrInvalidPrice = errors.New("total price must not be negative")

	// ErrOutsideAvailability means the requested range does not fit inside
	// any open window for that date.
	ErrOutsideAvailability = errors.New("requested time is outside provider availability")

	// ErrOverlaps means the requested range collides with another booking
	// that still occupies time.
	ErrOverlaps = errors.New("requested time overlaps an existing booking")
)
