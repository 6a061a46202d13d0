package model

import "time"

// BookingStatus is the lifecycle state of a booking.  PENDING is the only
// non-terminal state: a booking is created PENDING and moves exactly once
// to CONFIRMED or FAILED via payment verification, or to CANCELLED by an
// operator.  Terminal states never transition again.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusFailed    BookingStatus = "FAILED"
)

// Terminal reports whether no further status transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusFailed
}

// Occupies reports whether a booking in this status claims its seats.  The
// occupied seat set of a subject is the union of seat numbers across its
// PENDING and CONFIRMED bookings; CANCELLED and FAILED bookings free their
// seats implicitly.
func (s BookingStatus) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is one reservation attempt against a subject.  SeatNumbers is an
// ordered list unique within the booking.  PaymentOrderRef is assigned at
// creation (the external payment order is 1:1 with the booking);
// PaymentTxnRef is empty until the booking is confirmed.
type Booking struct {
	ID              uint64        `json:"id"`
	UserID          uint64        `json:"user_id"`
	SubjectID       uint64        `json:"subject_id"`
	SubjectKind     SubjectKind   `json:"subject_kind"`
	SeatNumbers     []string      `json:"seat_numbers"`
	AmountCents     uint32        `json:"amount_cents"`
	Status          BookingStatus `json:"status"`
	PaymentOrderRef string        `json:"payment_order_ref"`
	PaymentTxnRef   string        `json:"payment_txn_ref,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SeatCount returns the number of seats claimed by the booking.
func (b *Booking) SeatCount() uint32 { return uint32(len(b.SeatNumbers)) }
