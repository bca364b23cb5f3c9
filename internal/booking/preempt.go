package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/venue"
)

// Displacement records what a preemption did to one reservation.
type Displacement struct {
	Reservation   model.Reservation `json:"reservation"`
	OriginalVenue string            `json:"originalVenue"`
	Outcome       model.Status      `json:"outcome"`
}

// PreemptionPlanner moves or cancels junior reservations that stand in the
// way of a confirmed senior request.
type PreemptionPlanner struct {
	pool venue.Pool
	now  func() time.Time
}

// NewPreemptionPlanner returns a planner that moves displaced reservations
// into the first free hall of pool.
func NewPreemptionPlanner(pool venue.Pool) *PreemptionPlanner {
	return &PreemptionPlanner{pool: pool, now: time.Now}
}

// Displace acts on every conflict strictly junior to incoming.  Equal or
// more senior reservations are never touched.  Only pending and confirmed
// reservations are displaced; reassigned and cancelled ones are terminal.
// Each displaced reservation is written through tx before the next is
// planned, so later conflicts see the halls already taken.
func (p *PreemptionPlanner) Displace(ctx context.Context, tx Tx, incoming Classification, conflicts []model.Reservation) ([]Displacement, error) {
	var out []Displacement
	for _, c := range conflicts {
		if c.PriorityRank <= incoming.Rank {
			continue
		}
		if c.Status != model.StatusPending && c.Status != model.StatusConfirmed {
			continue
		}
		occupied, err := tx.OccupiedVenues(ctx, c.Date, c.Time)
		if err != nil {
			return nil, fmt.Errorf("occupied venues for %s %s: %w", c.Date, c.Time, err)
		}

		moved := c.Clone()
		previous := moved.Venue
		moved.OriginalVenue = &previous
		moved.UpdatedAt = p.now().UTC()

		var reason string
		if target, ok := p.pool.FirstFree(occupied); ok {
			moved.Venue = target
			moved.Status = model.StatusReassigned
			reason = fmt.Sprintf("Booking moved due to higher priority booking by %s", incoming.Role)
		} else {
			moved.Status = model.StatusCancelled
			reason = fmt.Sprintf("Booking cancelled due to higher priority booking by %s", incoming.Role)
		}
		moved.MovedReason = &reason

		if err := tx.Update(ctx, moved); err != nil {
			return nil, fmt.Errorf("update displaced reservation %d: %w", moved.ID, err)
		}
		out = append(out, Displacement{Reservation: *moved, OriginalVenue: previous, Outcome: moved.Status})
	}
	return out, nil
}
