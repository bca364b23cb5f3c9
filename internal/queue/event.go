// Package queue defines the reservation audit events exchanged over the
// message broker, together with their publisher and consumer.
package queue

// Event types emitted by the booking engine.
const (
	EventCreated       = "reservation.created"
	EventReassigned    = "reservation.reassigned"
	EventCancelled     = "reservation.cancelled"
	EventStatusChanged = "reservation.status_changed"
	EventDeleted       = "reservation.deleted"
)

// ReservationEvent is published after a resolution commits.  It carries
// enough of the reservation for consumers to write an audit line without
// querying the primary database.
type ReservationEvent struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	Venue         string `json:"venue"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	PriorityRank  int    `json:"priority_rank"`
	OriginalVenue string `json:"original_venue,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Actor         string `json:"actor,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
