package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/middleware"
)

// ReservationHandler serves the requester-facing reservation endpoints.
// The requester is always the authenticated caller; an email in the body
// is ignored.
type ReservationHandler struct {
	Engine *booking.Engine
}

// NewReservationHandler panics if engine is nil.
func NewReservationHandler(engine *booking.Engine) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine}
}

// Create handles POST /v1/reservations.  It returns 201 with the stored
// reservation, the outcome message and any displaced reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// The token decides who is asking; a body email could borrow a
	// senior requester's rank.
	req.Email = id.Email

	// Field validation, the slot lock and preemption all happen in the
	// engine.  A busy slot comes back as a 409 with Retry-After.
	out, err := h.Engine.CreateReservation(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	// Always an array in the response, even when nothing was displaced.
	if out.Displaced == nil {
		out.Displaced = []booking.Displacement{}
	}
	return c.JSON(http.StatusCreated, out)
}

// Mine handles GET /v1/my-reservations.
func (h *ReservationHandler) Mine(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.Engine.ListReservations(c.Request().Context(), booking.Filter{Email: id.Email})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}
