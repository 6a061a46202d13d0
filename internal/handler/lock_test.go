package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/ticket-booking/internal/lock"
)

func lockContext(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(42))
	c.SetParamNames("kind", "id")
	c.SetParamValues("movie", "7")
	return c, rec
}

func TestAcquireLocks_Success(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	h := NewLockHandler(lock.NewManager(rdb, 5*time.Minute))

	mock.ExpectSetNX(lock.Key(7, "A1"), "42", 5*time.Minute).SetVal(true)
	mock.ExpectSetNX(lock.Key(7, "A2"), "42", 5*time.Minute).SetVal(true)

	c, rec := lockContext(t, http.MethodPost, `{"seat_numbers":["A1","A2"]}`)
	assert.NoError(t, h.AcquireLocks(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ttl_seconds":300`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireLocks_ConflictReleasesPartial(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	h := NewLockHandler(lock.NewManager(rdb, 5*time.Minute))

	// Second seat is held by someone else; the handler must give the first
	// seat back (the release round trip is best effort) and report 409.
	mock.ExpectSetNX(lock.Key(7, "A1"), "42", 5*time.Minute).SetVal(true)
	mock.ExpectSetNX(lock.Key(7, "A2"), "42", 5*time.Minute).SetVal(false)

	c, rec := lockContext(t, http.MethodPost, `{"seat_numbers":["A1","A2"]}`)
	assert.NoError(t, h.AcquireLocks(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seat":"A2"`)
}

func TestAcquireLocks_BadBody(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	h := NewLockHandler(lock.NewManager(rdb, 0))

	c, rec := lockContext(t, http.MethodPost, `{"seat_numbers":[]}`)
	assert.NoError(t, h.AcquireLocks(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcquireLocks_Unauthorized(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	h := NewLockHandler(lock.NewManager(rdb, 0))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_numbers":["A1"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id in context
	assert.NoError(t, h.AcquireLocks(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckLock_FreeAndHeld(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	h := NewLockHandler(lock.NewManager(rdb, 5*time.Minute))

	mock.ExpectGet(lock.Key(7, "A1")).RedisNil()
	c, rec := lockContext(t, http.MethodGet, "")
	c.SetParamNames("kind", "id", "seat")
	c.SetParamValues("movie", "7", "A1")
	assert.NoError(t, h.CheckLock(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locked":false`)

	mock.ExpectGet(lock.Key(7, "A2")).SetVal("99")
	c, rec = lockContext(t, http.MethodGet, "")
	c.SetParamNames("kind", "id", "seat")
	c.SetParamValues("movie", "7", "A2")
	assert.NoError(t, h.CheckLock(c))
	assert.Contains(t, rec.Body.String(), `"holder":"99"`)
}
