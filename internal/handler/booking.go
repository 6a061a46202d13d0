package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/service"
)

// BookingHandler exposes booking creation, listing and cancellation on
// behalf of authenticated customers.  All methods assume JWT and role
// validation has already been performed by middleware.  The heavy lifting
// is delegated to the coordinator; this layer only translates between HTTP
// and the service error taxonomy.
type BookingHandler struct {
	Coordinator *service.BookingCoordinator
	BookingRepo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  Both dependencies must be
// non-nil.
func NewBookingHandler(coordinator *service.BookingCoordinator, bookingRepo *repository.BookingRepo) *BookingHandler {
	if coordinator == nil || bookingRepo == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Coordinator: coordinator, BookingRepo: bookingRepo}
}

type createBookingRequest struct {
	SubjectKind    string   `json:"subject_kind" validate:"required"`
	SubjectID      uint64   `json:"subject_id" validate:"required,min=1"`
	SeatNumbers    []string `json:"seat_numbers" validate:"required,min=1,dive,required"`
	UnitPriceCents uint32   `json:"unit_price_cents,omitempty"`
}

// CreateBooking handles POST /v1/bookings.  On success it returns 201 with
// the PENDING booking and the external payment order id the client needs
// to complete payment.  Seat and capacity conflicts map to 409 so clients
// re-select seats rather than retry the identical request.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	kind, ok := model.ParseSubjectKind(body.SubjectKind)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown subject kind"})
	}

	booking, err := h.Coordinator.Create(c.Request().Context(), service.CreateBookingInput{
		UserID:         userID,
		SubjectKind:    kind,
		SubjectID:      body.SubjectID,
		SeatNumbers:    body.SeatNumbers,
		UnitPriceCents: body.UnitPriceCents,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrSubjectNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subject not found"})
		case errors.Is(err, service.ErrCapacityExceeded),
			errors.Is(err, service.ErrSeatConflict),
			errors.Is(err, service.ErrLockUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		c.Logger().Errorf("create booking: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":  booking,
		"order_id": booking.PaymentOrderRef,
	})
}

// ListBookings handles GET /v1/my-bookings.  It returns all bookings
// created by the current user, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id for the authenticated user.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.BookingRepo.GetByIDForUser(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// CancelBooking handles DELETE /v1/bookings/:id.  Only a PENDING booking
// owned by the caller can be cancelled; its seats return to the pool
// implicitly because CANCELLED bookings no longer occupy them.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Coordinator.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}
