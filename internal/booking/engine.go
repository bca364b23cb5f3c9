// Package booking resolves competing venue reservations by organizational
// priority.  The Engine is the single code path behind every transport: it
// classifies the requester, detects collisions on the exact resource key,
// displaces junior occupants when a senior request is confirmed and
// enforces that a slot is held by at most one live reservation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/venue"
)

// ApprovedByAuto is recorded in ApprovedBy for reservations confirmed at
// creation time.
const ApprovedByAuto = "auto-approved"

// Outcome messages returned by CreateReservation.
const (
	MsgAutoApproved    = "Booking auto-approved"
	MsgPendingApproval = "Booking created and awaiting admin approval"
)

// EventPublisher receives audit events after a resolution commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }

// Request is an incoming reservation request.
type Request struct {
	Venue           string `json:"venue"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Attendees       int    `json:"attendees"`
	Organizer       string `json:"organizer"`
	Email           string `json:"email"`
	Purpose         string `json:"purpose"`
	PurposeCategory string `json:"purposeCategory"`
}

// Outcome is the result of a successful CreateReservation.
type Outcome struct {
	Reservation model.Reservation `json:"reservation"`
	Message     string            `json:"message"`
	Displaced   []Displacement    `json:"displaced"`
}

// Stats counts reservations by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Confirmed  int `json:"confirmed"`
	Cancelled  int `json:"cancelled"`
	Reassigned int `json:"reassigned"`
}

// Deps bundles the collaborators of an Engine.  Store, Identities and
// Catalog are required; Locker defaults to a LocalLocker with a two second
// wait and Events defaults to discarding events.
type Deps struct {
	Store      Store
	Identities IdentityStore
	Catalog    CapacityCatalog
	Pool       venue.Pool
	Locker     Locker
	Events     EventPublisher
}

// Engine is the reservation resolution engine.
type Engine struct {
	store      Store
	catalog    CapacityCatalog
	locker     Locker
	events     EventPublisher
	classifier *PriorityClassifier
	detector   ConflictDetector
	planner    *PreemptionPlanner
	now        func() time.Time
}

// NewEngine wires an Engine and panics if a required dependency is nil.
func NewEngine(d Deps) *Engine {
	if d.Store == nil || d.Identities == nil || d.Catalog == nil {
		panic("nil dependency passed to booking.NewEngine")
	}
	if d.Locker == nil {
		d.Locker = NewLocalLocker(2 * time.Second)
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	return &Engine{
		store:      d.Store,
		catalog:    d.Catalog,
		locker:     d.Locker,
		events:     d.Events,
		classifier: NewPriorityClassifier(d.Identities),
		planner:    NewPreemptionPlanner(d.Pool),
		now:        time.Now,
	}
}

func (r Request) normalize() (Request, model.PurposeCategory, error) {
	r.Venue = strings.TrimSpace(r.Venue)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Organizer = strings.TrimSpace(r.Organizer)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Purpose = strings.TrimSpace(r.Purpose)

	required := []struct{ field, value string }{
		{"venue", r.Venue},
		{"date", r.Date},
		{"time", r.Time},
		{"organizer", r.Organizer},
		{"email", r.Email},
		{"purpose", r.Purpose},
	}
	for _, f := range required {
		if f.value == "" {
			return r, "", invalid(f.field, "is required")
		}
	}
	if r.Attendees <= 0 {
		return r, "", invalid("attendees", "must be a positive integer")
	}
	category, ok := model.ParsePurposeCategory(r.PurposeCategory)
	if !ok {
		return r, "", invalid("purposeCategory", "unknown category %q", r.PurposeCategory)
	}
	return r, category, nil
}

// CreateReservation admits a new request.  A confirmed request displaces
// strictly junior occupants of its slot; if the slot is still held once
// preemption has run the request fails with a ConflictError and nothing
// is persisted, including the displacements.
func (e *Engine) CreateReservation(ctx context.Context, req Request) (*Outcome, error) {
	req, category, err := req.normalize()
	if err != nil {
		return nil, err
	}
	cls := e.classifier.Classify(ctx, req.Email)
	key := model.SlotKey{Venue: req.Venue, Date: req.Date, Time: req.Time}

	release, err := e.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	var out Outcome
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		out = Outcome{}
		conflicts, err := e.detector.Conflicts(ctx, tx, key)
		if err != nil {
			return persistence("detect conflicts", err)
		}

		status := model.StatusPending
		if cls.AutoEligible {
			status = model.StatusConfirmed
		}
		if senior, ok := seniorHolder(conflicts, cls.Rank); ok {
			log.Printf("booking: %s (rank %d) held by reservation %d (rank %d), request stays pending",
				req.Email, cls.Rank, senior.ID, senior.PriorityRank)
			status = model.StatusPending
		}

		if status == model.StatusConfirmed && len(conflicts) > 0 {
			displaced, err := e.planner.Displace(ctx, tx, cls, conflicts)
			if err != nil {
				return persistence("preempt", err)
			}
			out.Displaced = displaced
		}

		remaining, err := e.detector.Conflicts(ctx, tx, key)
		if err != nil {
			return persistence("recheck slot", err)
		}
		if len(remaining) > 0 {
			return &ConflictError{Venue: key.Venue, Date: key.Date, Time: key.Time}
		}

		maxID, err := tx.MaxID(ctx)
		if err != nil {
			return persistence("allocate id", err)
		}
		now := e.now().UTC()
		res := &model.Reservation{
			ID:              maxID + 1,
			Venue:           req.Venue,
			Date:            req.Date,
			Time:            req.Time,
			Attendees:       req.Attendees,
			Organizer:       req.Organizer,
			Email:           req.Email,
			Purpose:         req.Purpose,
			PurposeCategory: category,
			Status:          status,
			PriorityRank:    cls.Rank,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if capacity, ok := e.catalog.CapacityOf(req.Venue); ok {
			res.VenueCapacity = &capacity
		}
		if status == model.StatusConfirmed {
			by := ApprovedByAuto
			res.ApprovedBy = &by
			res.ApprovalDate = &now
		}
		if err := tx.Insert(ctx, res); err != nil {
			return persistence("insert reservation", err)
		}
		out.Reservation = *res
		return nil
	})
	if err != nil {
		return nil, persistence("create reservation", err)
	}

	out.Message = MsgPendingApproval
	if out.Reservation.Status == model.StatusConfirmed {
		out.Message = MsgAutoApproved
	}
	if n := len(out.Displaced); n > 0 {
		out.Message = fmt.Sprintf("%s; %d lower-priority booking(s) displaced", out.Message, n)
	}

	e.publish(ctx, eventFor(queue.EventCreated, &out.Reservation, "", req.Email))
	for _, d := range out.Displaced {
		typ := queue.EventReassigned
		if d.Outcome == model.StatusCancelled {
			typ = queue.EventCancelled
		}
		e.publish(ctx, eventFor(typ, &d.Reservation, derefString(d.Reservation.MovedReason), req.Email))
	}
	return &out, nil
}

// TransitionStatus applies an administrative status change.  Only
// pending→confirmed and pending→cancelled are legal.
func (e *Engine) TransitionStatus(ctx context.Context, id uint64, status string, admin *model.Identity) (*model.Reservation, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	target, ok := model.ParseStatus(status)
	if !ok || target == model.StatusReassigned {
		return nil, invalid("status", "must be one of pending, confirmed, cancelled")
	}

	current, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := e.acquire(ctx, current.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *model.Reservation
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		r, err := tx.Get(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			return &NotFoundError{ID: id}
		}
		if err != nil {
			return persistence("load reservation", err)
		}
		if r.Status != model.StatusPending || target == model.StatusPending {
			return invalid("status", "cannot change status from %s to %s", r.Status, target)
		}

		now := e.now().UTC()
		if target == model.StatusConfirmed {
			holders, err := e.detector.Conflicts(ctx, tx, r.Key())
			if err != nil {
				return persistence("recheck slot", err)
			}
			for _, h := range holders {
				if h.ID != r.ID {
					return &ConflictError{Venue: r.Venue, Date: r.Date, Time: r.Time}
				}
			}
			by := admin.Email
			r.ApprovedBy = &by
			r.ApprovalDate = &now
		}
		r.Status = target
		r.UpdatedAt = now
		if err := tx.Update(ctx, r); err != nil {
			return persistence("update reservation", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, persistence("transition status", err)
	}
	e.publish(ctx, eventFor(queue.EventStatusChanged, updated, "", admin.Email))
	return updated, nil
}

// ListReservations returns reservations matching f ordered by priority
// rank, then id.
func (e *Engine) ListReservations(ctx context.Context, f Filter) ([]model.Reservation, error) {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	if f.Status != "" {
		st, ok := model.ParseStatus(string(f.Status))
		if !ok {
			return nil, invalid("status", "unknown status %q", f.Status)
		}
		f.Status = st
	}
	rows, err := e.store.List(ctx, f)
	if err != nil {
		return nil, persistence("list reservations", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PriorityRank != rows[j].PriorityRank {
			return rows[i].PriorityRank < rows[j].PriorityRank
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

// DeleteReservation removes a reservation outright and returns it.
func (e *Engine) DeleteReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	current, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := e.acquire(ctx, current.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	var removed *model.Reservation
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		r, err := tx.Get(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			return &NotFoundError{ID: id}
		}
		if err != nil {
			return persistence("load reservation", err)
		}
		if err := tx.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return &NotFoundError{ID: id}
			}
			return persistence("delete reservation", err)
		}
		removed = r
		return nil
	})
	if err != nil {
		return nil, persistence("delete reservation", err)
	}
	e.publish(ctx, eventFor(queue.EventDeleted, removed, "", ""))
	return removed, nil
}

// Stats returns reservation counts by status.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	counts, err := e.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, persistence("count reservations", err)
	}
	s := Stats{
		Pending:    counts[model.StatusPending],
		Confirmed:  counts[model.StatusConfirmed],
		Cancelled:  counts[model.StatusCancelled],
		Reassigned: counts[model.StatusReassigned],
	}
	for _, n := range counts {
		s.Total += n
	}
	return s, nil
}

func (e *Engine) get(ctx context.Context, id uint64) (*model.Reservation, error) {
	var r *model.Reservation
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		r, err = tx.Get(ctx, id)
		return err
	})
	if errors.Is(err, ErrRecordNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, persistence("load reservation", err)
	}
	return r, nil
}

func (e *Engine) acquire(ctx context.Context, key model.SlotKey) (func(), error) {
	release, err := e.locker.Acquire(ctx, SlotLockKey(key.Date, key.Time))
	if errors.Is(err, ErrSlotBusy) {
		return nil, &ConflictError{Venue: key.Venue, Date: key.Date, Time: key.Time, Busy: true}
	}
	if err != nil {
		return nil, persistence("lock slot", err)
	}
	return release, nil
}

func (e *Engine) publish(ctx context.Context, ev queue.ReservationEvent) {
	if err := e.events.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish %s for reservation %d failed: %v", ev.Type, ev.ReservationID, err)
	}
}

func eventFor(typ string, r *model.Reservation, reason, actor string) queue.ReservationEvent {
	return queue.ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		Venue:         r.Venue,
		Date:          r.Date,
		Time:          r.Time,
		Email:         r.Email,
		Status:        string(r.Status),
		PriorityRank:  r.PriorityRank,
		OriginalVenue: derefString(r.OriginalVenue),
		Reason:        reason,
		Actor:         actor,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
