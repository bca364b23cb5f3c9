package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// AdminHandler serves the administrative reservation endpoints.  Routes
// are expected to be wrapped in JWTAuth and RequireRole(admin); handlers
// check the identity again before mutating anything.
type AdminHandler struct {
	Engine *booking.Engine
}

func NewAdminHandler(engine *booking.Engine) *AdminHandler {
	if engine == nil {
		panic("nil engine passed to NewAdminHandler")
	}
	return &AdminHandler{Engine: engine}
}

// List handles GET /v1/reservations with optional ?status= and ?email=.
func (h *AdminHandler) List(c echo.Context) error {
	f := booking.Filter{
		Email:  c.QueryParam("email"),
		Status: model.Status(c.QueryParam("status")),
	}
	rows, err := h.Engine.ListReservations(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Stats handles GET /v1/reservations/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	s, err := h.Engine.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// The engine checks the admin identity again and records it as the
	// approver.  Confirming re-checks the slot, so a confirm can fail with
	// 409 when another reservation already holds it.
	r, err := h.Engine.TransitionStatus(c.Request().Context(), id, req.Status, middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	// e.g. "reservation confirmed"
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation " + string(r.Status), "reservation": r})
}

// Delete handles DELETE /v1/reservations/:id.
func (h *AdminHandler) Delete(c echo.Context) error {
	if !middleware.IdentityFrom(c).IsAdmin() {
		return writeError(c, booking.ErrForbidden)
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Engine.DeleteReservation(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation deleted", "reservation": r})
}
