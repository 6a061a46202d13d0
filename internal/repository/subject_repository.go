package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// SubjectRepo reads and mutates the capacity counters of sellable subjects.
// Each subject kind lives in its own table; the kind discriminator selects
// the table, and the scanned row is wrapped in the kind's capability type.
// The only column this repository ever mutates is available_seats, and only
// through DecrementAvailableTx.
type SubjectRepo struct {
	db *sql.DB
}

// NewSubjectRepo returns a new SubjectRepo bound to the given database.
func NewSubjectRepo(db *sql.DB) *SubjectRepo { return &SubjectRepo{db: db} }

// tableForKind maps a subject kind to its backing table.  Unknown kinds
// return an empty string; callers must validate the kind first.
func tableForKind(kind model.SubjectKind) string {
	switch kind {
	case model.KindMovie:
		return "movie_shows"
	case model.KindSport:
		return "sport_fixtures"
	case model.KindEvent:
		return "concert_events"
	}
	return ""
}

// subjectColumns is the shared projection of the three subject tables.  The
// tables carry further metadata (descriptions, images) that this system
// never touches.
const subjectColumns = `id, title, venue, city, starts_at, price_cents, total_seats, available_seats`

func scanSubject(row *sql.Row, kind model.SubjectKind) (model.SellableSubject, error) {
	var core model.SubjectCore
	err := row.Scan(
		&core.ID, &core.Title, &core.Venue, &core.City, &core.StartsAt,
		&core.PriceCents, &core.Total, &core.Available,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	subj, ok := model.SubjectForKind(kind, core)
	if !ok {
		return nil, ErrSubjectNotFound
	}
	return subj, nil
}

// GetByRef loads a subject snapshot without locking.  It is intended for
// read-only surfaces (the inventory endpoint); booking and confirmation
// paths must use GetForUpdateTx instead.
func (r *SubjectRepo) GetByRef(ctx context.Context, kind model.SubjectKind, id uint64) (model.SellableSubject, error) {
	table := tableForKind(kind)
	if table == "" {
		return nil, ErrSubjectNotFound
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, subjectColumns, table)
	return scanSubject(r.db.QueryRowContext(ctx, q, id), kind)
}

// GetForUpdateTx loads a subject inside the given transaction while taking
// an exclusive row lock on it.  The lock totally orders all capacity
// affecting work for that subject: concurrent creates and confirmations
// serialize here until the holder commits or rolls back (bounded by the
// configured lock wait timeout).
func (r *SubjectRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, kind model.SubjectKind, id uint64) (model.SellableSubject, error) {
	table := tableForKind(kind)
	if table == "" {
		return nil, ErrSubjectNotFound
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? FOR UPDATE`, subjectColumns, table)
	return scanSubject(tx.QueryRowContext(ctx, q, id), kind)
}

// DecrementAvailableTx subtracts n seats from the subject's available
// counter inside the given transaction.  The WHERE guard keeps the counter
// from ever going negative even if a caller skipped the re-check; zero
// affected rows is reported as an error so the transaction aborts rather
// than confirming unsellable seats.
func (r *SubjectRepo) DecrementAvailableTx(ctx context.Context, tx *sql.Tx, kind model.SubjectKind, id uint64, n uint32) error {
	table := tableForKind(kind)
	if table == "" {
		return ErrSubjectNotFound
	}
	q := fmt.Sprintf(`UPDATE %s SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`, table)
	res, err := tx.ExecContext(ctx, q, n, id, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("decrement of %d seats on %s id=%d touched no row", n, table, id)
	}
	return nil
}
