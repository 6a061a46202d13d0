package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/lock"
)

// LockHandler exposes the advisory seat locks customers take while picking
// seats.  The locks are UX hints only: holding one does not guarantee the
// booking will commit, and the coordinator never trusts them for
// correctness.  A dead cache reports seats as locked (fail closed), which
// clients see as a plain conflict.
type LockHandler struct {
	Locks *lock.Manager
}

// NewLockHandler constructs a LockHandler.
func NewLockHandler(locks *lock.Manager) *LockHandler {
	if locks == nil {
		panic("nil lock manager passed to NewLockHandler")
	}
	return &LockHandler{Locks: locks}
}

type seatLockRequest struct {
	SeatNumbers []string `json:"seat_numbers" validate:"required,min=1,dive,required"`
}

// holderFor derives the lock holder identity for the current user.
func holderFor(userID uint64) string { return strconv.FormatUint(userID, 10) }

// AcquireLocks handles POST /v1/subjects/:kind/:id/locks.  It tries to take
// every requested seat; on the first failure it releases what it already
// took and returns 409 naming the seat, so a partial selection never
// lingers for the full TTL.
func (h *LockHandler) AcquireLocks(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	_, subjectID, ok := subjectRef(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subject reference"})
	}
	var body seatLockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	holder := holderFor(userID)
	taken := make([]string, 0, len(body.SeatNumbers))
	for _, seat := range body.SeatNumbers {
		ok, err := h.Locks.Acquire(ctx, subjectID, seat, holder)
		if err != nil || !ok {
			for _, s := range taken {
				_, _ = h.Locks.Release(ctx, subjectID, s, holder)
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seat is locked",
				"seat":  seat,
			})
		}
		taken = append(taken, seat)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"locked":      taken,
		"ttl_seconds": int(h.Locks.TTL().Seconds()),
	})
}

// ReleaseLocks handles DELETE /v1/subjects/:kind/:id/locks.  Seats not held
// by the caller (expired or never taken) are reported but not treated as
// errors.
func (h *LockHandler) ReleaseLocks(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	_, subjectID, ok := subjectRef(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subject reference"})
	}
	var body seatLockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	holder := holderFor(userID)
	released := 0
	for _, seat := range body.SeatNumbers {
		if ok, _ := h.Locks.Release(ctx, subjectID, seat, holder); ok {
			released++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// ExtendLocks handles PUT /v1/subjects/:kind/:id/locks.  It refreshes the
// TTL of every seat still held by the caller and returns 409 when any seat
// has already been lost to expiry or another holder.
func (h *LockHandler) ExtendLocks(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	_, subjectID, ok := subjectRef(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subject reference"})
	}
	var body seatLockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	holder := holderFor(userID)
	for _, seat := range body.SeatNumbers {
		ok, err := h.Locks.Extend(ctx, subjectID, seat, holder)
		if err != nil || !ok {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "lock no longer held",
				"seat":  seat,
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"extended":    len(body.SeatNumbers),
		"ttl_seconds": int(h.Locks.TTL().Seconds()),
	})
}

// CheckLock handles GET /v1/subjects/:kind/:id/locks/:seat.  It reports the
// current holder of one seat lock, or locked=false when the seat is free.
// A cache failure reads as locked by an unknown holder.
func (h *LockHandler) CheckLock(c echo.Context) error {
	_, subjectID, ok := subjectRef(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subject reference"})
	}
	seat := c.Param("seat")
	if seat == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat"})
	}
	holder, err := h.Locks.Check(c.Request().Context(), subjectID, seat)
	if err != nil {
		// Fail closed: an unreachable cache must read as locked.
		return c.JSON(http.StatusOK, echo.Map{"seat": seat, "locked": true})
	}
	if holder == "" {
		return c.JSON(http.StatusOK, echo.Map{"seat": seat, "locked": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"seat": seat, "locked": true, "holder": holder})
}
