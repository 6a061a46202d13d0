package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/service"
)

type stubOrders struct{}

func (stubOrders) CreateOrder(context.Context, uint32, string) (string, error) {
	return "order_stub", nil
}

// newBookingHandler wires a handler whose request-validation paths can run
// without a database; none of the tests below reach a transaction.
func newBookingHandler() *BookingHandler {
	db := new(sql.DB)
	bookings := repository.NewBookingRepo(db)
	coord := service.NewBookingCoordinator(db, repository.NewSubjectRepo(db), bookings, nil, stubOrders{}, 0)
	return NewBookingHandler(coord, bookings)
}

func bookingContext(t *testing.T, body string, authed bool) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if authed {
		c.Set("user_id", uint64(42))
	}
	return c, rec
}

func TestCreateBooking_Unauthorized(t *testing.T) {
	h := newBookingHandler()
	c, rec := bookingContext(t, `{"subject_kind":"MOVIE","subject_id":1,"seat_numbers":["A1"]}`, false)
	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking_MalformedBody(t *testing.T) {
	h := newBookingHandler()
	c, rec := bookingContext(t, `{"subject_kind":`, true)
	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_MissingSeats(t *testing.T) {
	h := newBookingHandler()
	c, rec := bookingContext(t, `{"subject_kind":"MOVIE","subject_id":1,"seat_numbers":[]}`, true)
	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_UnknownKind(t *testing.T) {
	h := newBookingHandler()
	c, rec := bookingContext(t, `{"subject_kind":"OPERA","subject_id":1,"seat_numbers":["A1"]}`, true)
	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown subject kind")
}

func TestGetBooking_InvalidID(t *testing.T) {
	h := newBookingHandler()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(42))
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.NoError(t, h.GetBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
