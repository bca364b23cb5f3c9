package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/venue"
)

// VenueHandler exposes the capacity catalog.  These routes are public.
type VenueHandler struct {
	Catalog *venue.Catalog
}

func NewVenueHandler(catalog *venue.Catalog) *VenueHandler {
	return &VenueHandler{Catalog: catalog}
}

// List handles GET /v1/venues.
func (h *VenueHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"venues": h.Catalog.List()})
}

// Recommend handles GET /v1/venues/recommend?attendees=N.  Halls that fit
// the audience come first, smallest first.
func (h *VenueHandler) Recommend(c echo.Context) error {
	n, err := strconv.Atoi(c.QueryParam("attendees"))
	if err != nil || n <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attendees must be a positive integer", "field": "attendees"})
	}
	return c.JSON(http.StatusOK, echo.Map{"attendees": n, "venues": h.Catalog.Recommend(n)})
}
