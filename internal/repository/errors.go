// Package repository implements data access over MySQL for subjects and
// bookings.  Sentinel errors defined here let higher layers distinguish
// failure scenarios with errors.Is instead of matching driver errors or
// sql.ErrNoRows at every call site.
package repository

import "errors"

// ErrSubjectNotFound is returned when no subject row exists for the given
// kind and id.  Handlers should translate this into an HTTP 404 response.
var ErrSubjectNotFound = errors.New("subject not found")

// ErrBookingNotFound is returned when a booking id does not resolve to a
// row.  Handlers should translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// booking they do not own.  Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")
