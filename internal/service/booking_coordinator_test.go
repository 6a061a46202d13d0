package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

type stubOrders struct{ id string }

func (s stubOrders) CreateOrder(context.Context, uint32, string) (string, error) {
	return s.id, nil
}

func newCoordinatorWithMock(t *testing.T) (*BookingCoordinator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	c := NewBookingCoordinator(db, repository.NewSubjectRepo(db), repository.NewBookingRepo(db), nil, stubOrders{id: "order_9"}, 0)
	return c, mock
}

func expectMovieLock(mock sqlmock.Sqlmock, available uint32) {
	mock.ExpectQuery("SELECT (.+) FROM movie_shows WHERE id = (.+) FOR UPDATE").
		WithArgs(7).WillReturnRows(subjectRow(available))
}

func expectOccupied(mock sqlmock.Sqlmock, seatLists ...string) {
	rows := sqlmock.NewRows([]string{"seat_numbers"})
	for _, s := range seatLists {
		rows.AddRow([]byte(s))
	}
	mock.ExpectQuery("SELECT seat_numbers FROM bookings").
		WithArgs(7, "MOVIE").WillReturnRows(rows)
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		UserID:      42,
		SubjectKind: model.KindMovie,
		SubjectID:   7,
		SeatNumbers: []string{"A1", "A2"},
	}
}

func TestCreateBookingInput_Validate(t *testing.T) {
	in := validInput()
	assert.NoError(t, in.validate())

	cases := []struct {
		name   string
		mutate func(*CreateBookingInput)
	}{
		{"missing user", func(in *CreateBookingInput) { in.UserID = 0 }},
		{"unknown kind", func(in *CreateBookingInput) { in.SubjectKind = "OPERA" }},
		{"missing subject", func(in *CreateBookingInput) { in.SubjectID = 0 }},
		{"no seats", func(in *CreateBookingInput) { in.SeatNumbers = nil }},
		{"empty seat", func(in *CreateBookingInput) { in.SeatNumbers = []string{"A1", ""} }},
		{"duplicate seat", func(in *CreateBookingInput) { in.SeatNumbers = []string{"A1", "A2", "A1"} }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := validInput()
			c.mutate(&in)
			err := in.validate()
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestFirstConflict(t *testing.T) {
	occupied := map[string]struct{}{"A2": {}, "B5": {}}

	seat, taken := firstConflict([]string{"A1", "A2", "B5"}, occupied)
	assert.True(t, taken)
	assert.Equal(t, "A2", seat)

	_, taken = firstConflict([]string{"A1", "C3"}, occupied)
	assert.False(t, taken)

	_, taken = firstConflict(nil, occupied)
	assert.False(t, taken)

	_, taken = firstConflict([]string{"A1"}, nil)
	assert.False(t, taken)
}

func TestSeatConflict_WrapsSentinelAndNamesSeat(t *testing.T) {
	err := seatConflict("C4")
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Contains(t, err.Error(), "C4")
}

func TestCreate_SeatConflictNamesFirstOffendingSeat(t *testing.T) {
	c, mock := newCoordinatorWithMock(t)
	mock.ExpectBegin()
	expectMovieLock(mock, 10)
	expectOccupied(mock, `["A1"]`, `["B2","B3"]`)
	mock.ExpectRollback()

	in := validInput()
	in.SeatNumbers = []string{"B2", "C1"}
	b, err := c.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Contains(t, err.Error(), "B2")
	assert.Nil(t, b)
	// No INSERT was expected: a conflicting request must leave nothing
	// behind when the transaction rolls back.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_CapacityExceeded(t *testing.T) {
	c, mock := newCoordinatorWithMock(t)
	mock.ExpectBegin()
	expectMovieLock(mock, 1) // two seats requested, one available
	mock.ExpectRollback()

	b, err := c.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_CustomPriceRejectedForFixedPricing(t *testing.T) {
	c, mock := newCoordinatorWithMock(t)
	mock.ExpectBegin()
	expectMovieLock(mock, 10)
	expectOccupied(mock)
	mock.ExpectRollback()

	in := validInput()
	in.UnitPriceCents = 999 // movie shows sell at their listed price only
	b, err := c.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_CommitsPendingBookingWithOrder(t *testing.T) {
	c, mock := newCoordinatorWithMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	expectMovieLock(mock, 10)
	expectOccupied(mock, `["C7"]`) // disjoint from the request
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(42, 7, "MOVIE", []byte(`["A1","A2"]`), 30000, "PENDING", "order_9").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM bookings WHERE id").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	b, err := c.Create(context.Background(), validInput())
	assert.NoError(t, err)
	assert.Equal(t, uint64(11), b.ID)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, uint32(30000), b.AmountCents) // 2 seats at the 15000 list price
	assert.Equal(t, "order_9", b.PaymentOrderRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewBookingCoordinator_DefaultsTxTimeout(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewBookingCoordinator(db, repository.NewSubjectRepo(db), repository.NewBookingRepo(db), nil, stubOrders{}, 0)
	assert.Equal(t, DefaultTxTimeout, c.txTimeout)
}
