package database

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleState is returned when a guarded status update loses a race:
	// the booking's status changed after the caller read it. The caller
	// must re-fetch and decide whether to retry; the write is never forced.
	ErrStaleState = errors.New("booking status changed concurrently")

	// ErrUnavailable wraps driver or connection failures. It is the only
	// error kind for which a caller-driven retry with backoff makes sense.
	ErrUnavailable = errors.New("data store unavailable")
)
