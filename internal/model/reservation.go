package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCancelled  Status = "cancelled"
	StatusReassigned Status = "reassigned"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusReassigned}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Occupying reports whether a reservation in this status holds its venue.
func (s Status) Occupying() bool {
	return s == StatusConfirmed || s == StatusReassigned
}

// PurposeCategory classifies why a venue is booked.
type PurposeCategory string

const (
	PurposeAlumniTalk PurposeCategory = "Alumni Talk"
	PurposeWorkshop   PurposeCategory = "Workshop"
	PurposeSeminar    PurposeCategory = "Seminar"
	PurposeEvents     PurposeCategory = "Events"
	PurposeOther      PurposeCategory = "Other"
)

var purposeCategories = []PurposeCategory{PurposeAlumniTalk, PurposeWorkshop, PurposeSeminar, PurposeEvents, PurposeOther}

// ParsePurposeCategory maps user input to a category.  Blank input yields
// PurposeOther.  Matching ignores case and spaces so that "AlumniTalk" and
// "alumni talk" are both accepted.
func ParsePurposeCategory(s string) (PurposeCategory, bool) {
	squash := func(v string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
	}
	in := squash(s)
	if in == "" {
		return PurposeOther, true
	}
	for _, c := range purposeCategories {
		if squash(string(c)) == in {
			return c, true
		}
	}
	return "", false
}

// SlotKey identifies one bookable slot: a venue at an exact date and time.
type SlotKey struct {
	Venue string
	Date  string
	Time  string
}

// Reservation is a request for a venue at a date/time slot together with
// its resolution state and audit trail.
//
// Fields:
//  ID            – monotonically increasing identifier.
//  Venue/Date/Time – the resource key, matched by exact string equality.
//  PriorityRank  – rank of the requester at creation; never re-derived.
//  VenueCapacity – capacity snapshot of Venue at creation (nil if unknown).
//  OriginalVenue – venue held before a preemption moved or cancelled it.
//  MovedReason   – explanation written by a preemption.
//  ApprovedBy    – "auto-approved" or the confirming admin's email.
type Reservation struct {
	ID              uint64          `json:"id"`
	Venue           string          `json:"venue"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Attendees       int             `json:"attendees"`
	Organizer       string          `json:"organizer"`
	Email           string          `json:"email"`
	Purpose         string          `json:"purpose"`
	PurposeCategory PurposeCategory `json:"purposeCategory"`
	Status          Status          `json:"status"`
	PriorityRank    int             `json:"priorityRank"`
	VenueCapacity   *int            `json:"venueCapacity"`
	OriginalVenue   *string         `json:"originalVenue"`
	MovedReason     *string         `json:"movedReason"`
	ApprovedBy      *string         `json:"approvedBy"`
	ApprovalDate    *time.Time      `json:"approvalDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Key returns the reservation's resource key.
func (r *Reservation) Key() SlotKey {
	return SlotKey{Venue: r.Venue, Date: r.Date, Time: r.Time}
}

// Clone returns a deep copy so that callers may mutate it freely.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	if r.VenueCapacity != nil {
		v := *r.VenueCapacity
		c.VenueCapacity = &v
	}
	if r.OriginalVenue != nil {
		v := *r.OriginalVenue
		c.OriginalVenue = &v
	}
	if r.MovedReason != nil {
		v := *r.MovedReason
		c.MovedReason = &v
	}
	if r.ApprovedBy != nil {
		v := *r.ApprovedBy
		c.ApprovedBy = &v
	}
	if r.ApprovalDate != nil {
		v := *r.ApprovalDate
		c.ApprovalDate = &v
	}
	return &c
}
