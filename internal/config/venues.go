package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/iliyamo/venue-reservation/internal/venue"
)

// DefaultCatalog is the capacity catalog used when VENUE_CATALOG is unset.
const DefaultCatalog = "KRS Seminar Hall=50,Civil Seminar Hall=75,ECE Seminar Hall=100,MS Auditorium=500"

// DefaultOverflowPool is the ordered list of halls displaced reservations
// are moved into when OVERFLOW_VENUES is unset.
const DefaultOverflowPool = "Main Hall,Conference Room,Auditorium,Seminar Hall,Lecture Hall 1,Lecture Hall 2,Lecture Hall 3,Lecture Hall 4"

// VenueConfig holds the capacity catalog and the overflow pool.  The two
// are independent: a pool hall need not appear in the catalog.
type VenueConfig struct {
	Catalog []venue.Venue
	Pool    venue.Pool
}

// LoadVenueConfig reads VENUE_CATALOG and OVERFLOW_VENUES.  A malformed
// catalog is fatal.
func LoadVenueConfig() VenueConfig {
	catalog, err := ParseCatalog(envStr("VENUE_CATALOG", DefaultCatalog))
	if err != nil {
		log.Fatalf("invalid VENUE_CATALOG: %v", err)
	}
	return VenueConfig{
		Catalog: catalog,
		Pool:    ParsePool(envStr("OVERFLOW_VENUES", DefaultOverflowPool)),
	}
}

// ParseCatalog parses "name=capacity,name=capacity".
func ParseCatalog(s string) ([]venue.Venue, error) {
	var out []venue.Venue
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, capStr, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("entry %q: want name=capacity", item)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(capStr))
		if err != nil || capacity <= 0 {
			return nil, fmt.Errorf("entry %q: capacity must be a positive integer", item)
		}
		out = append(out, venue.Venue{Name: name, Capacity: capacity})
	}
	return out, nil
}

// ParsePool parses a comma separated, ordered list of hall names.
func ParsePool(s string) venue.Pool {
	var pool venue.Pool
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			pool = append(pool, name)
		}
	}
	return pool
}
