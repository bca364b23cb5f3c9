package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const identityKey = "identity"

// IdentityFrom returns the identity stored by JWTAuth, or nil for
// unauthenticated requests.
func IdentityFrom(c echo.Context) *model.Identity {
	id, _ := c.Get(identityKey).(*model.Identity)
	return id
}

// userID identifies the caller for rate limiting.  It returns "anon" when
// no user is authenticated.
func userID(c echo.Context) string {
	if id := IdentityFrom(c); id != nil && id.Email != "" {
		return id.Email
	}
	return "anon"
}
