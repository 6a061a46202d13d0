package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/repository"
)

// SubjectHandler serves read-only inventory snapshots.  The availability it
// reports is advisory: by the time the client acts on it the counter may
// have moved, and only the booking path decides whether seats are really
// free.
type SubjectHandler struct {
	Subjects *repository.SubjectRepo
}

// NewSubjectHandler constructs a SubjectHandler.
func NewSubjectHandler(subjects *repository.SubjectRepo) *SubjectHandler {
	if subjects == nil {
		panic("nil subject repo passed to NewSubjectHandler")
	}
	return &SubjectHandler{Subjects: subjects}
}

// GetSubject handles GET /v1/subjects/:kind/:id.
func (h *SubjectHandler) GetSubject(c echo.Context) error {
	kind, id, ok := subjectRef(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subject reference"})
	}
	subj, err := h.Subjects.GetByRef(c.Request().Context(), kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subject not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch subject"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"kind":            subj.Kind(),
		"id":              subj.SubjectID(),
		"total_seats":     subj.TotalSeats(),
		"available_seats": subj.AvailableSeats(),
		"price_cents":     subj.UnitPriceCents(),
	})
}
