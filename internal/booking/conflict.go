package booking

import (
	"context"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ConflictDetector finds the reservations that share a resource key.  It
// holds no state; every call reads through the supplied transaction.
type ConflictDetector struct{}

// Conflicts returns every non-cancelled reservation at key.
func (ConflictDetector) Conflicts(ctx context.Context, tx Tx, key model.SlotKey) ([]model.Reservation, error) {
	rows, err := tx.ActiveAt(ctx, key)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		// Cancelled reservations never hold a slot.
		if r.Status == model.StatusCancelled {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// seniorHolder returns the first conflict strictly more senior than rank.
func seniorHolder(conflicts []model.Reservation, rank int) (*model.Reservation, bool) {
	for i := range conflicts {
		if conflicts[i].PriorityRank < rank {
			return &conflicts[i], true
		}
	}
	return nil, false
}
