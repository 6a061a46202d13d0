package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  One row is persisted
// per booking attempt; there is no per-seat inventory table.  The seat list
// is stored as a JSON array in the seat_numbers column and the occupied set
// of a subject is derived on demand from its non-terminal bookings.  All
// timestamp columns are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, subject_id, subject_kind, seat_numbers, amount_cents, status, payment_order_ref, payment_txn_ref, created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	var seatsJSON []byte
	var txnRef sql.NullString
	err := scan(
		&b.ID, &b.UserID, &b.SubjectID, &b.SubjectKind, &seatsJSON,
		&b.AmountCents, &b.Status, &b.PaymentOrderRef, &txnRef,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seatsJSON, &b.SeatNumbers); err != nil {
		return nil, err
	}
	if txnRef.Valid {
		b.PaymentTxnRef = txnRef.String
	}
	return &b, nil
}

// CreateTx inserts a new PENDING booking within the scope of an existing
// transaction and populates the generated id and timestamps on the given
// model.  The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	seatsJSON, err := json.Marshal(b.SeatNumbers)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (user_id, subject_id, subject_kind, seat_numbers, amount_cents, status, payment_order_ref)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.SubjectID, string(b.SubjectKind), seatsJSON,
		b.AmountCents, string(b.Status), b.PaymentOrderRef,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row to populate timestamps and defaults.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetForUpdateTx loads a booking inside the given transaction while taking
// an exclusive row lock on it.  The lock makes concurrent payment
// callbacks for the same booking serialize, which is what turns the verify
// step into an idempotent state machine.  ErrBookingNotFound is returned
// when no row exists.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// OccupiedSeatsTx returns the union of seat numbers across all PENDING and
// CONFIRMED bookings of a subject, computed inside the given transaction.
// Callers must already hold the subject's row lock: every transition that
// changes the occupied set takes that lock first, so a plain consistent
// read here observes a stable set and no row-level share locks are needed.
func (r *BookingRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, kind model.SubjectKind, subjectID uint64) (map[string]struct{}, error) {
	const q = `SELECT seat_numbers FROM bookings
	           WHERE subject_id = ? AND subject_kind = ? AND status IN ('PENDING','CONFIRMED')`
	rows, err := tx.QueryContext(ctx, q, subjectID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupied := make(map[string]struct{})
	for rows.Next() {
		var seatsJSON []byte
		if err := rows.Scan(&seatsJSON); err != nil {
			return nil, err
		}
		var seats []string
		if err := json.Unmarshal(seatsJSON, &seats); err != nil {
			return nil, err
		}
		for _, s := range seats {
			occupied[s] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// ConfirmTx marks a booking CONFIRMED and records the external payment
// transaction reference within the given transaction.  It must only be
// called for a PENDING booking whose subject row lock is held and whose
// capacity has been re-checked.
func (r *BookingRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64, paymentTxnRef string) error {
	const q = `UPDATE bookings SET status = 'CONFIRMED', payment_txn_ref = ? WHERE id = ? AND status = 'PENDING'`
	return r.transitionTx(ctx, tx, q, paymentTxnRef, id)
}

// FailTx marks a booking FAILED within the given transaction.  Used when a
// verified payment loses the capacity race; the seats free up implicitly
// because FAILED bookings no longer contribute to the occupied set.
func (r *BookingRepo) FailTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE bookings SET status = 'FAILED' WHERE id = ? AND status = 'PENDING'`
	return r.transitionTx(ctx, tx, q, id)
}

// CancelTx marks a booking CANCELLED within the given transaction.  This is
// the explicit operator action; payment flows never set CANCELLED.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE bookings SET status = 'CANCELLED' WHERE id = ? AND status = 'PENDING'`
	return r.transitionTx(ctx, tx, q, id)
}

// transitionTx runs one of the guarded status updates.  The status guard in
// each statement means a lost race (row already terminal) surfaces as zero
// affected rows, reported as ErrBookingNotFound so callers treat it like a
// vanished precondition rather than silently double-transitioning.
func (r *BookingRepo) transitionTx(ctx context.Context, tx *sql.Tx, q string, args ...any) error {
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// GetByIDForUser returns a single booking owned by the given user.  It
// returns ErrBookingNotFound when the row does not exist and ErrForbidden
// when it belongs to a different user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListByUser returns all bookings created by the given user, newest first.
// When no bookings exist an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
