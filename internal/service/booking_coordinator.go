package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ticket-booking/internal/lock"
	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/payment"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

// BookingCoordinator atomically validates and commits seat reservations.
// One call produces at most one PENDING booking plus its external payment
// order, all inside a single database transaction serialized on the
// subject's capacity row lock.  Two concurrent creates for overlapping
// seats on the same subject cannot both commit: the second observer blocks
// on the row lock, then sees the first's booking in the occupied set and
// fails with ErrSeatConflict.  The advisory seat lock plays no part in
// that guarantee.
type BookingCoordinator struct {
	db        *sql.DB
	subjects  *repository.SubjectRepo
	bookings  *repository.BookingRepo
	locks     *lock.Manager // optional; nil disables the advisory cross-check
	orders    payment.OrderCreator
	txTimeout time.Duration
}

// NewBookingCoordinator constructs a coordinator.  The lock manager may be
// nil; every other dependency must be non-nil.  txTimeout bounds one create
// or cancel transaction end to end (including the external order call); a
// non-positive value falls back to DefaultTxTimeout.
func NewBookingCoordinator(db *sql.DB, subjects *repository.SubjectRepo, bookings *repository.BookingRepo, locks *lock.Manager, orders payment.OrderCreator, txTimeout time.Duration) *BookingCoordinator {
	if db == nil || subjects == nil || bookings == nil || orders == nil {
		panic("nil dependency passed to NewBookingCoordinator")
	}
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &BookingCoordinator{db: db, subjects: subjects, bookings: bookings, locks: locks, orders: orders, txTimeout: txTimeout}
}

// CreateBookingInput carries one reservation request.  UnitPriceCents is
// optional: zero means "use the subject's listed price"; a non-zero value
// is only accepted for subject kinds that permit variable pricing.
type CreateBookingInput struct {
	UserID         uint64
	SubjectKind    model.SubjectKind
	SubjectID      uint64
	SeatNumbers    []string
	UnitPriceCents uint32
}

// validate rejects malformed input before any transaction is opened, so a
// bad request never costs a row lock.
func (in *CreateBookingInput) validate() error {
	if in.UserID == 0 {
		return validationErr("requester is required")
	}
	if _, ok := model.ParseSubjectKind(string(in.SubjectKind)); !ok {
		return validationErr("unknown subject kind")
	}
	if in.SubjectID == 0 {
		return validationErr("subject id is required")
	}
	if len(in.SeatNumbers) == 0 {
		return validationErr("at least one seat is required")
	}
	seen := make(map[string]struct{}, len(in.SeatNumbers))
	for _, s := range in.SeatNumbers {
		if s == "" {
			return validationErr("seat numbers must be non-empty")
		}
		if _, dup := seen[s]; dup {
			return validationErr(fmt.Sprintf("duplicate seat %s", s))
		}
		seen[s] = struct{}{}
	}
	return nil
}

// firstConflict returns the first requested seat present in the occupied
// set, in request order.
func firstConflict(requested []string, occupied map[string]struct{}) (string, bool) {
	for _, s := range requested {
		if _, taken := occupied[s]; taken {
			return s, true
		}
	}
	return "", false
}

// Create reserves the requested seats as a PENDING booking.
//
// Inside one transaction it locks the subject's capacity row, checks the
// available counter, derives the occupied seat set from non-terminal
// bookings, rejects any overlap, optionally cross-checks the advisory
// locks, creates the external payment order and persists the booking.  Any
// error rolls the whole transaction back; no partial seat claim is ever
// visible.  The capacity counter itself is not decremented here - that
// happens exactly once at payment confirmation.
func (s *BookingCoordinator) Create(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	subj, err := s.subjects.GetForUpdateTx(ctx, tx, in.SubjectKind, in.SubjectID)
	if err != nil {
		return nil, err
	}

	if subj.AvailableSeats() < uint32(len(in.SeatNumbers)) {
		return nil, ErrCapacityExceeded
	}

	occupied, err := s.bookings.OccupiedSeatsTx(ctx, tx, in.SubjectKind, in.SubjectID)
	if err != nil {
		return nil, err
	}
	if seat, taken := firstConflict(in.SeatNumbers, occupied); taken {
		return nil, seatConflict(seat)
	}

	// Defense in depth only: the occupied-set check above is authoritative
	// and has already passed.  A seat advisory-locked by someone else still
	// aborts so the UX stays honest, and a dead cache aborts too (fail
	// closed) rather than pretending nobody holds the seats.
	if s.locks != nil {
		holder := strconv.FormatUint(in.UserID, 10)
		for _, seat := range in.SeatNumbers {
			cur, lerr := s.locks.Check(ctx, in.SubjectID, seat)
			if lerr != nil {
				return nil, fmt.Errorf("%w: seat %s", ErrLockUnavailable, seat)
			}
			if cur != "" && cur != holder {
				return nil, fmt.Errorf("%w: seat %s is locked by another user", ErrLockUnavailable, seat)
			}
		}
	}

	unit := subj.UnitPriceCents()
	if in.UnitPriceCents != 0 {
		if !subj.AllowsCustomPrice() {
			return nil, validationErr("this subject does not allow a custom price")
		}
		unit = in.UnitPriceCents
	}
	amount := unit * uint32(len(in.SeatNumbers))

	receipt := fmt.Sprintf("bk-%s", uuid.NewString())
	orderRef, err := s.orders.CreateOrder(ctx, amount, receipt)
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	b := &model.Booking{
		UserID:          in.UserID,
		SubjectID:       in.SubjectID,
		SubjectKind:     in.SubjectKind,
		SeatNumbers:     in.SeatNumbers,
		AmountCents:     amount,
		Status:          model.StatusPending,
		PaymentOrderRef: orderRef,
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	log.Printf("coordinator: booking %d pending | user=%d %s/%d seats=%d amount=%d order=%s",
		b.ID, b.UserID, b.SubjectKind, b.SubjectID, len(b.SeatNumbers), b.AmountCents, orderRef)
	return b, nil
}

// Cancel transitions a PENDING booking to CANCELLED on behalf of an
// operator or the owning user.  The subject is not touched: the capacity
// counter was never decremented for a PENDING booking, and the seats free
// up because CANCELLED bookings leave the occupied set.  Row locks are
// taken booking first, matching the verify path, so the two can never
// deadlock.
func (s *BookingCoordinator) Cancel(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	if bookingID == 0 {
		return nil, validationErr("booking id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if b.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrValidation, b.Status)
	}
	if err := s.bookings.CancelTx(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	b.Status = model.StatusCancelled
	return b, nil
}
