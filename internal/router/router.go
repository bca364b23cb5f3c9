// Package router registers the HTTP routes of the reservation API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Handlers bundles everything the routes need.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Admin        *handler.AdminHandler
	Venues       *handler.VenueHandler
	Users        *handler.UserHandler
	JWTSecret    string
	// RateLimit wraps reservation creation; Cache wraps the venue catalog.
	// Either may be nil.
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	// Liveness check.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login and the authenticated profile endpoint.
func RegisterAuth(e *echo.Echo, h Handlers) {
	// Exchange email and password for a short-lived access token.
	e.POST("/v1/auth/login", h.Auth.Login)
	// The caller's role, priority rank and whether requests auto-approve.
	e.GET("/v1/me", h.Auth.Me, middleware.JWTAuth(h.JWTSecret))
}

// RegisterPublic registers the venue catalog.
func RegisterPublic(e *echo.Echo, h Handlers) {
	// The catalog only changes on restart, so the whole group may sit
	// behind the response cache.
	g := e.Group("/v1/venues", optional(h.Cache))
	g.GET("", h.Venues.List)
	// ?attendees=N ranks venues by fit.
	g.GET("/recommend", h.Venues.Recommend)
}

// RegisterReservations registers requester and admin reservation routes.
// Any authenticated caller may request a venue; listing all reservations
// and changing them requires the admin role.
func RegisterReservations(e *echo.Echo, h Handlers) {
	// Requester routes.  The JWT identity is the requester; the priority
	// rank comes from the identity store, not from the token.
	authed := e.Group("/v1", middleware.JWTAuth(h.JWTSecret))
	// Only creation is rate limited: it takes the slot lock.
	authed.POST("/reservations", h.Reservations.Create, optional(h.RateLimit))
	authed.GET("/my-reservations", h.Reservations.Mine)

	// Admin routes share the /v1/reservations prefix with the POST above.
	// echo matches on method as well, so the POST stays open to every
	// authenticated caller.
	admin := e.Group("/v1/reservations",
		middleware.JWTAuth(h.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("", h.Admin.List)
	admin.GET("/stats", h.Admin.Stats)
	// pending -> confirmed | cancelled
	admin.PATCH("/:id/status", h.Admin.UpdateStatus)
	admin.DELETE("/:id", h.Admin.Delete)
}

// RegisterUsers registers account management.  Only an administrator may
// create accounts because the role sets reservation priority.
func RegisterUsers(e *echo.Echo, h Handlers) {
	if h.Users == nil {
		return
	}
	g := e.Group("/v1/users",
		middleware.JWTAuth(h.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("", h.Users.Create)
}

// Register wires every route group.
func Register(e *echo.Echo, h Handlers) {
	RegisterRoutes(e)
	RegisterAuth(e, h)
	RegisterPublic(e, h)
	RegisterReservations(e, h)
	RegisterUsers(e, h)
}

func optional(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
