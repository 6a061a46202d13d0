package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/service"
)

// PaymentHandler receives the payment gateway's confirmation callback.
// The route is unauthenticated (the gateway has no user session); the
// HMAC signature is the authentication.  Responses never echo signature
// material back.
type PaymentHandler struct {
	Verifier *service.PaymentVerifier
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(verifier *service.PaymentVerifier) *PaymentHandler {
	if verifier == nil {
		panic("nil verifier passed to NewPaymentHandler")
	}
	return &PaymentHandler{Verifier: verifier}
}

type verifyPaymentRequest struct {
	BookingID  uint64 `json:"booking_id" validate:"required,min=1"`
	PaymentRef string `json:"payment_ref" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

// VerifyPayment handles POST /v1/payments/verify.  Gateway retries are
// expected: replays of an applied confirmation return the same outcome
// without mutating anything.  A booking that lost the capacity race comes
// back 200 with status FAILED and refund_required set; issuing the refund
// is an explicit external action.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var body verifyPaymentRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.Verifier.Verify(c.Request().Context(), body.BookingID, body.PaymentRef, body.Signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrSubjectNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subject not found"})
		case errors.Is(err, service.ErrInvalidSignature):
			// Retriable; say nothing about the expected signature.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
		case errors.Is(err, service.ErrAmbiguousReplay):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		c.Logger().Errorf("verify payment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify payment"})
	}

	resp := echo.Map{
		"booking": res.Booking,
		"status":  res.Booking.Status,
	}
	if res.Replayed {
		resp["replayed"] = true
	}
	if res.RefundRequired {
		resp["refund_required"] = true
	}
	if res.NotifyFailed {
		resp["warning"] = "payment confirmed but ticket issuance could not be notified"
	}
	return c.JSON(http.StatusOK, resp)
}
