// Package middleware holds the echo middleware shared by the HTTP routes:
// authentication, role checks, rate limiting and response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller's identity
// in the context.  Handlers read it with IdentityFrom; the raw claims are
// also available as c.Get("user_id") and c.Get("role").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id := &model.Identity{
				Email: strings.ToLower(claims.Subject),
				Role:  model.ParseRole(claims.Role),
			}
			c.Set("user_id", id.Email)
			c.Set("role", string(id.Role))
			c.Set(identityKey, id)
			return next(c)
		}
	}
}
