package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// validate checks request DTO struct tags.  One shared instance; the
// validator caches struct metadata internally.
var validate = validator.New()

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWTAuth stores the raw claim value, whose concrete type depends
// on how the token was minted, so several numeric shapes are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// subjectRef parses the :kind and :id path parameters shared by the
// subject-scoped routes.  The bool result is false when either is invalid.
func subjectRef(c echo.Context) (model.SubjectKind, uint64, bool) {
	kind, ok := model.ParseSubjectKind(c.Param("kind"))
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return kind, id, true
}
