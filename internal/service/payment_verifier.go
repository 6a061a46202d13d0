package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/payment"
	"github.com/iliyamo/ticket-booking/internal/queue"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

// TicketNotifier hands a confirmed booking to the ticket issuance
// collaborator.  Implementations are best effort; the verifier never rolls
// back a confirmation because notification failed.
type TicketNotifier interface {
	TicketIssueRequested(ctx context.Context, ev queue.TicketIssueEvent) error
}

// VerifyResult is the outcome of one payment callback.
type VerifyResult struct {
	Booking *model.Booking
	// Replayed is set when the callback duplicates an outcome an earlier
	// callback already applied (a CONFIRMED booking with the same payment
	// reference, or a FAILED one).  A callback for a CANCELLED booking is
	// not a replay: no payment outcome was ever applied to it, and only the
	// status reports its state.
	Replayed bool
	// RefundRequired is set when the booking lost the capacity race and
	// was marked FAILED: the payment went through but the seats are gone.
	// Issuing the refund is an explicit external action, never implicit.
	RefundRequired bool
	// NotifyFailed is set when the confirmation committed but ticket
	// issuance could not be notified (degraded success).
	NotifyFailed bool
}

// PaymentVerifier is the idempotent payment confirmation state machine.
// verify() may be re-invoked with identical arguments any number of times
// (gateway retries are expected) and produces the same terminal outcome
// with at most one capacity decrement.  Row locks are taken booking first,
// then subject; every capacity-affecting path in the system follows that
// same order.
type PaymentVerifier struct {
	db        *sql.DB
	subjects  *repository.SubjectRepo
	bookings  *repository.BookingRepo
	secret    string
	notifier  TicketNotifier // optional; nil skips notification
	txTimeout time.Duration
}

// NewPaymentVerifier constructs a verifier.  The notifier may be nil.
// txTimeout bounds one confirmation transaction; a non-positive value falls
// back to DefaultTxTimeout.
func NewPaymentVerifier(db *sql.DB, subjects *repository.SubjectRepo, bookings *repository.BookingRepo, secret string, notifier TicketNotifier, txTimeout time.Duration) *PaymentVerifier {
	if db == nil || subjects == nil || bookings == nil || secret == "" {
		panic("nil dependency passed to NewPaymentVerifier")
	}
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &PaymentVerifier{db: db, subjects: subjects, bookings: bookings, secret: secret, notifier: notifier, txTimeout: txTimeout}
}

// Verify applies one gateway callback to the booking state machine.
//
// PENDING bookings move to CONFIRMED (capacity decremented in the same
// transaction) or to FAILED when the subject no longer has enough seats.
// Terminal bookings are never mutated: a CONFIRMED booking replayed with
// the same payment reference is a no-op success, with a different
// reference it is ErrAmbiguousReplay, a FAILED booking replays its
// terminal outcome, and a CANCELLED one reports its status without the
// replay flag.  A bad signature leaves the booking PENDING and is
// retriable.
func (v *PaymentVerifier) Verify(ctx context.Context, bookingID uint64, paymentRef, signature string) (*VerifyResult, error) {
	if bookingID == 0 {
		return nil, validationErr("booking id is required")
	}
	if paymentRef == "" {
		return nil, validationErr("payment reference is required")
	}
	if signature == "" {
		return nil, validationErr("signature is required")
	}

	// The notifier is deliberately outside this bound; only the transaction
	// and the row locks it holds are capped.
	txCtx, cancel := context.WithTimeout(ctx, v.txTimeout)
	defer cancel()

	tx, err := v.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := v.bookings.GetForUpdateTx(txCtx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	// Idempotency gate before anything else: replays of an applied
	// confirmation must not depend on the signature still verifying.
	if b.Status == model.StatusConfirmed {
		if b.PaymentTxnRef == paymentRef {
			return &VerifyResult{Booking: b, Replayed: true}, nil
		}
		return nil, ErrAmbiguousReplay
	}

	if !payment.VerifySignature(b.PaymentOrderRef, paymentRef, signature, v.secret) {
		return nil, ErrInvalidSignature
	}

	// Other terminal states: report the outcome again without mutation.  A
	// FAILED booking replays the outcome an earlier callback applied; a
	// CANCELLED one never had a payment outcome applied, so its status alone
	// tells the story.
	if b.Status == model.StatusFailed {
		return &VerifyResult{Booking: b, Replayed: true, RefundRequired: true}, nil
	}
	if b.Status == model.StatusCancelled {
		return &VerifyResult{Booking: b}, nil
	}

	subj, err := v.subjects.GetForUpdateTx(txCtx, tx, b.SubjectKind, b.SubjectID)
	if err != nil {
		return nil, err
	}

	if subj.AvailableSeats() < b.SeatCount() {
		// Payment verified but the seats are gone: terminal FAILED, and
		// the money has to come back via an explicit refund.
		if err := v.bookings.FailTx(txCtx, tx, b.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		b.Status = model.StatusFailed
		log.Printf("verifier: booking %d failed capacity re-check | subject=%s/%d want=%d have=%d",
			b.ID, b.SubjectKind, b.SubjectID, b.SeatCount(), subj.AvailableSeats())
		return &VerifyResult{Booking: b, RefundRequired: true}, nil
	}

	// Inventory and booking status change atomically together.
	if err := v.subjects.DecrementAvailableTx(txCtx, tx, b.SubjectKind, b.SubjectID, b.SeatCount()); err != nil {
		return nil, err
	}
	if err := v.bookings.ConfirmTx(txCtx, tx, b.ID, paymentRef); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	b.Status = model.StatusConfirmed
	b.PaymentTxnRef = paymentRef

	res := &VerifyResult{Booking: b}
	if v.notifier != nil {
		ev := queue.TicketIssueEvent{
			BookingID:   b.ID,
			SubjectID:   b.SubjectID,
			SubjectKind: string(b.SubjectKind),
			UserID:      b.UserID,
			SeatNumbers: b.SeatNumbers,
			AmountCents: b.AmountCents,
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := v.notifier.TicketIssueRequested(ctx, ev); err != nil {
			log.Printf("verifier: booking %d confirmed but ticket notify failed: %v", b.ID, err)
			res.NotifyFailed = true
		}
	}
	return res, nil
}
