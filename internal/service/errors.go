// Package service implements the two core workflows: the booking
// transaction coordinator and the payment confirmation state machine.
// The sentinel errors below form the taxonomy handlers map to HTTP
// statuses.  Client-input errors (ErrValidation, plus the repository's
// not-found sentinels) are distinct from state-conflict errors
// (ErrCapacityExceeded, ErrSeatConflict, ErrLockUnavailable) so clients
// can re-select seats instead of blindly retrying.
package service

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTxTimeout bounds a booking or confirmation transaction when no
// explicit timeout is configured.  It must comfortably exceed the DB lock
// wait timeout so a blocked row lock surfaces as a lock wait error, not as
// a context deadline.
const DefaultTxTimeout = 15 * time.Second

// ErrValidation covers bad input rejected before any transaction is opened.
var ErrValidation = errors.New("validation failed")

// ErrCapacityExceeded is returned when a subject has fewer available seats
// than requested.
var ErrCapacityExceeded = errors.New("not enough seats available")

// ErrSeatConflict is returned when a requested seat is already claimed by a
// PENDING or CONFIRMED booking.  Wrap it with seatConflict() so the first
// offending seat is named.
var ErrSeatConflict = errors.New("seat conflict")

// ErrLockUnavailable is returned when the advisory cross-check finds a seat
// locked by someone else, or the lock cache cannot be reached (fail
// closed).
var ErrLockUnavailable = errors.New("seat lock unavailable")

// ErrInvalidSignature is returned when a payment callback signature does
// not verify.  The booking stays PENDING; the gateway may retry.
var ErrInvalidSignature = errors.New("invalid payment signature")

// ErrAmbiguousReplay is returned when a callback targets an already
// CONFIRMED booking with a different payment reference.  Nothing is
// mutated; the discrepancy is surfaced for manual resolution.
var ErrAmbiguousReplay = errors.New("booking already confirmed with a different payment reference")

func seatConflict(seat string) error {
	return fmt.Errorf("%w: seat %s is already booked or reserved", ErrSeatConflict, seat)
}

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
