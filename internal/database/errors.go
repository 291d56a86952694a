package database

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrNotAvailable           = errors.New("space is not available for the requested time")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrPastDate               = errors.New("cannot book in the past")
	ErrDateTooFar             = errors.New("booking date is too far in the future")
	ErrDuplicate              = errors.New("record already exists")
	ErrCapacityExceeded       = errors.New("participants exceed space capacity")
	ErrPromoUnavailable       = errors.New("promo code can no longer be applied")
)
