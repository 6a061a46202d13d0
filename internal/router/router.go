package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-booking/internal/config"
	"github.com/iliyamo/ticket-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/ticket-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated endpoints.  Subject snapshots are
// browsable by guests and sit behind the Redis response cache; the payment
// verification callback is called by the gateway, which has no user session,
// so the HMAC signature inside the payload is its authentication.
func RegisterPublic(e *echo.Echo, s *handler.SubjectHandler, p *handler.PaymentHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	// Subject availability snapshot.  Cached briefly; the booking path never
	// reads through this surface, so a stale counter here is harmless.
	e.GET("/v1/subjects/:kind/:id", s.GetSubject, cache)
	// Gateway confirmation callback.  Never cached, never rate limited by
	// user identity: gateways retry aggressively and replays must reach the
	// verifier to be answered idempotently.
	e.POST("/v1/payments/verify", p.VerifyPayment)
}

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT and the CUSTOMER role.  Customers can lock seats while
// choosing them, place bookings, view and cancel their own bookings.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, l *handler.LockHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)

	// Advisory seat locks.  Locks improve the picking experience but carry
	// no correctness weight; bookings are checked against the database.
	g.POST("/subjects/:kind/:id/locks", l.AcquireLocks)
	g.DELETE("/subjects/:kind/:id/locks", l.ReleaseLocks)
	g.PUT("/subjects/:kind/:id/locks", l.ExtendLocks)
	g.GET("/subjects/:kind/:id/locks/:seat", l.CheckLock)

	// Booking lifecycle.
	g.POST("/bookings", b.CreateBooking)
	g.GET("/my-bookings", b.ListBookings)
	g.GET("/bookings/:id", b.GetBooking)
	g.DELETE("/bookings/:id", b.CancelBooking)
}
