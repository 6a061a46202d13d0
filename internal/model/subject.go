// Package model defines the domain types shared between the repository and
// service layers: sellable subjects (movie shows, sport fixtures, concert
// events) and bookings against them.
package model

import "strings"

// SubjectKind discriminates the three kinds of sellable subjects.  The
// values are stored verbatim in the bookings.subject_kind column and are
// accepted as the :kind path segment of subject-scoped routes (case
// insensitive).
type SubjectKind string

const (
	KindMovie SubjectKind = "MOVIE" // a scheduled movie show
	KindSport SubjectKind = "SPORT" // a sport fixture
	KindEvent SubjectKind = "EVENT" // a concert or other live event
)

// ParseSubjectKind normalizes a raw kind string and reports whether it is
// one of the known discriminator values.
func ParseSubjectKind(raw string) (SubjectKind, bool) {
	switch SubjectKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case KindMovie:
		return KindMovie, true
	case KindSport:
		return KindSport, true
	case KindEvent:
		return KindEvent, true
	}
	return "", false
}

// SellableSubject is the capability set every subject kind must provide to
// the booking coordinator and the payment verifier.  Concrete types are
// selected via the stored kind discriminator, never by inspecting columns
// of one table at runtime.  Only AvailableSeats is ever mutated by this
// system, and only by the payment confirmation step.
type SellableSubject interface {
	SubjectID() uint64
	Kind() SubjectKind
	TotalSeats() uint32
	AvailableSeats() uint32
	UnitPriceCents() uint32
	// AllowsCustomPrice reports whether a caller-supplied price may replace
	// the stored unit price when computing a booking amount.  Movie shows
	// and sport fixtures sell at their listed price; concert events may be
	// priced per booking (tiered seating handled upstream).
	AllowsCustomPrice() bool
}

// SubjectCore carries the columns common to all three subject tables.  The
// kind-specific wrapper types embed it and contribute only behaviour.
type SubjectCore struct {
	ID         uint64
	Title      string
	Venue      string
	City       string
	StartsAt   string // RFC3339, UTC
	PriceCents uint32
	Total      uint32
	Available  uint32
}

// MovieShow is a scheduled screening in a cinema hall.
type MovieShow struct{ SubjectCore }

// SportFixture is a match or race with stadium seating.
type SportFixture struct{ SubjectCore }

// ConcertEvent is a live event; pricing may vary per booking.
type ConcertEvent struct{ SubjectCore }

func (s MovieShow) SubjectID() uint64       { return s.ID }
func (s MovieShow) Kind() SubjectKind       { return KindMovie }
func (s MovieShow) TotalSeats() uint32      { return s.Total }
func (s MovieShow) AvailableSeats() uint32  { return s.Available }
func (s MovieShow) UnitPriceCents() uint32  { return s.PriceCents }
func (s MovieShow) AllowsCustomPrice() bool { return false }

func (s SportFixture) SubjectID() uint64       { return s.ID }
func (s SportFixture) Kind() SubjectKind       { return KindSport }
func (s SportFixture) TotalSeats() uint32      { return s.Total }
func (s SportFixture) AvailableSeats() uint32  { return s.Available }
func (s SportFixture) UnitPriceCents() uint32  { return s.PriceCents }
func (s SportFixture) AllowsCustomPrice() bool { return false }

func (s ConcertEvent) SubjectID() uint64       { return s.ID }
func (s ConcertEvent) Kind() SubjectKind       { return KindEvent }
func (s ConcertEvent) TotalSeats() uint32      { return s.Total }
func (s ConcertEvent) AvailableSeats() uint32  { return s.Available }
func (s ConcertEvent) UnitPriceCents() uint32  { return s.PriceCents }
func (s ConcertEvent) AllowsCustomPrice() bool { return true }

// SubjectForKind wraps a scanned core row in the concrete type matching the
// discriminator.  The second return value is false for unknown kinds.
func SubjectForKind(kind SubjectKind, core SubjectCore) (SellableSubject, bool) {
	switch kind {
	case KindMovie:
		return MovieShow{core}, true
	case KindSport:
		return SportFixture{core}, true
	case KindEvent:
		return ConcertEvent{core}, true
	}
	return nil, false
}
