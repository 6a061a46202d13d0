package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetUserID_AcceptsNumericShapes(t *testing.T) {
	e := echo.New()
	for _, v := range []any{uint64(42), int(42), int64(42), float64(42), "42"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", v)
		id, err := getUserID(c)
		assert.NoError(t, err, "%T", v)
		assert.Equal(t, uint64(42), id, "%T", v)
	}

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set("user_id", "not-a-number")
	_, err := getUserID(c)
	assert.Error(t, err)
}

func TestSubjectRef(t *testing.T) {
	e := echo.New()
	ctx := func(kind, id string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("kind", "id")
		c.SetParamValues(kind, id)
		return c
	}

	kind, id, ok := subjectRef(ctx("sport", "12"))
	assert.True(t, ok)
	assert.Equal(t, "SPORT", string(kind))
	assert.Equal(t, uint64(12), id)

	_, _, ok = subjectRef(ctx("opera", "12"))
	assert.False(t, ok)
	_, _, ok = subjectRef(ctx("movie", "0"))
	assert.False(t, ok)
	_, _, ok = subjectRef(ctx("movie", "x"))
	assert.False(t, ok)
}
