// Package venue holds the static venue catalog and the overflow pool used
// when a reservation has to be moved out of its hall.
package venue

import (
	"sort"
	"strings"
)

// Venue is one catalog entry.
type Venue struct {
	Name     string `json:"venue"`
	Capacity int    `json:"capacity"`
}

// Recommendation is a catalog venue annotated with whether it fits a
// requested number of attendees.
type Recommendation struct {
	Venue
	Suitable bool `json:"suitable"`
}

// Catalog maps venue names to capacities.  It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	venues []Venue
	byName map[string]int
}

// NewCatalog builds a catalog.  Entries with a blank name are skipped and a
// repeated name keeps its first capacity.
func NewCatalog(venues []Venue) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(venues))}
	for _, v := range venues {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		if _, dup := c.byName[name]; dup {
			continue
		}
		c.byName[name] = v.Capacity
		c.venues = append(c.venues, Venue{Name: name, Capacity: v.Capacity})
	}
	return c
}

// CapacityOf returns the capacity of the named venue.
func (c *Catalog) CapacityOf(name string) (int, bool) {
	n, ok := c.byName[name]
	return n, ok
}

// List returns the catalog in insertion order.
func (c *Catalog) List() []Venue {
	out := make([]Venue, len(c.venues))
	copy(out, c.venues)
	return out
}

// Recommend returns every venue with Suitable set when its capacity covers
// attendees.  Suitable venues come first; within each group the smallest
// hall comes first.
func (c *Catalog) Recommend(attendees int) []Recommendation {
	out := make([]Recommendation, 0, len(c.venues))
	for _, v := range c.venues {
		out = append(out, Recommendation{Venue: v, Suitable: v.Capacity >= attendees})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suitable != out[j].Suitable {
			return out[i].Suitable
		}
		return out[i].Capacity < out[j].Capacity
	})
	return out
}

// Pool is the ordered list of halls that displaced reservations may be
// moved into.  Order is significant: the first free hall wins.
type Pool []string

// FirstFree returns the first pool venue not present in occupied.
func (p Pool) FirstFree(occupied []string) (string, bool) {
	taken := make(map[string]struct{}, len(occupied))
	for _, v := range occupied {
		taken[v] = struct{}{}
	}
	for _, v := range p {
		if _, busy := taken[v]; !busy {
			return v, true
		}
	}
	return "", false
}
