package booking

import (
	"context"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// Tx is the view of the reservation table inside one resolution.  All
// reads observe writes made earlier through the same Tx, and nothing is
// visible to other transactions until the enclosing WithinTx returns nil.
type Tx interface {
	// ActiveAt returns every non-cancelled reservation holding key.
	ActiveAt(ctx context.Context, key model.SlotKey) ([]model.Reservation, error)
	// OccupiedVenues returns the venues held by non-cancelled reservations
	// at the given date and time.
	OccupiedVenues(ctx context.Context, date, time string) ([]string, error)
	// MaxID returns the largest reservation id, or 0 when the table is empty.
	MaxID(ctx context.Context) (uint64, error)
	// Get returns ErrRecordNotFound when id does not exist.
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	Insert(ctx context.Context, r *model.Reservation) error
	Update(ctx context.Context, r *model.Reservation) error
	// Delete returns ErrRecordNotFound when id does not exist.
	Delete(ctx context.Context, id uint64) error
}

// Filter selects reservations for listing.  Zero value means all.
type Filter struct {
	Email  string
	Status model.Status
}

// Store is the reservation persistence port used by the engine.
type Store interface {
	// WithinTx runs fn in a transaction.  When fn returns an error every
	// write it made is discarded and the error is returned unchanged.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// List returns matching reservations ordered by priority rank, then id.
	// Email matching is case-insensitive.
	List(ctx context.Context, f Filter) ([]model.Reservation, error)
	// CountByStatus returns the number of reservations per status.
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

// IdentityStore resolves a requester's organizational role.
type IdentityStore interface {
	RoleOf(ctx context.Context, email string) (model.Role, error)
}

// CapacityCatalog looks up venue capacities.
type CapacityCatalog interface {
	CapacityOf(name string) (int, bool)
}

// Locker serializes resolutions that touch the same slot.  Acquire blocks
// for a bounded time; on timeout it returns an error and the caller must
// not proceed.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
