package domain

import "errors"

// Sentinel errors shared by services, repositories and delivery.
var (
	// ErrNotFound is returned when an event, participant or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request or a stored row fails validation
	// (e.g. an event without a date or with a negative capacity).
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a participant status change is not allowed,
	// for example cancelling an already canceled participation.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrencyConflict is returned when the per-event critical section could not be
	// committed because of contention. The whole allocation attempt may be retried.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)
