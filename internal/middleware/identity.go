package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID (used by the rate limiter key builder) pulls the user id
// that JWTAuth stored in the Echo context; "anon" is returned for
// unauthenticated requests so guest traffic shares one bucket per IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from context as a string.  It
// returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
