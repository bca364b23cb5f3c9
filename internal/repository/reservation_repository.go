package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationRepo persists reservations in MySQL.  Every read made through
// a transaction takes row locks (SELECT ... FOR UPDATE) so that a whole
// resolution commits or rolls back as one unit.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, venue, slot_date, slot_time, attendees, organizer, email, purpose,
       purpose_category, status, priority_rank, venue_capacity, original_venue, moved_reason,
       approved_by, approval_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var (
		r                model.Reservation
		category, status string
		capacity         sql.NullInt64
		originalVenue    sql.NullString
		movedReason      sql.NullString
		approvedBy       sql.NullString
		approvalDate     sql.NullTime
	)
	err := s.Scan(
		&r.ID, &r.Venue, &r.Date, &r.Time, &r.Attendees, &r.Organizer, &r.Email, &r.Purpose,
		&category, &status, &r.PriorityRank, &capacity, &originalVenue, &movedReason,
		&approvedBy, &approvalDate, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.PurposeCategory = model.PurposeCategory(category)
	r.Status = model.Status(status)
	if capacity.Valid {
		n := int(capacity.Int64)
		r.VenueCapacity = &n
	}
	if originalVenue.Valid {
		v := originalVenue.String
		r.OriginalVenue = &v
	}
	if movedReason.Valid {
		v := movedReason.String
		r.MovedReason = &v
	}
	if approvedBy.Valid {
		v := approvedBy.String
		r.ApprovedBy = &v
	}
	if approvalDate.Valid {
		t := approvalDate.Time.UTC()
		r.ApprovalDate = &t
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func collect(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// maxTxAttempts bounds how often WithinTx reruns fn after InnoDB aborted
// the transaction as a deadlock victim or on a lock wait timeout.
const maxTxAttempts = 3

// lockSequence is the first statement of every reservation transaction.
// Locking one well-known row before any slot read gives all writers the
// same lock order, so gap locks taken by later reads cannot deadlock.
const lockSequence = `SELECT id FROM reservation_seq WHERE id = 1 FOR UPDATE`

// WithinTx implements booking.Store.  fn may run more than once when a
// transaction is aborted by the server; each run starts from a fresh
// transaction.
func (r *ReservationRepo) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
		log.Printf("repository: transaction aborted (attempt %d/%d): %v", attempt, maxTxAttempts, err)
	}
	return err
}

func (r *ReservationRepo) runTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var seq int
	if err := tx.QueryRowContext(ctx, lockSequence).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("lock reservation sequence: reservation_seq row missing")
		}
		return fmt.Errorf("lock reservation sequence: %w", err)
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// retryable reports InnoDB deadlocks (1213) and lock wait timeouts (1205).
func retryable(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && (myErr.Number == 1213 || myErr.Number == 1205)
}

// List implements booking.Store.
func (r *ReservationRepo) List(ctx context.Context, f booking.Filter) ([]model.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.Email != "" {
		where = append(where, "email = ?")
		args = append(args, strings.ToLower(f.Email))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY priority_rank ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collect(rows)
}

// CountByStatus implements booking.Store.
func (r *ReservationRepo) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	defer rows.Close()
	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}

// sqlTx implements booking.Tx on top of a MySQL transaction.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) ActiveAt(ctx context.Context, key model.SlotKey) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE venue = ? AND slot_date = ? AND slot_time = ? AND status <> 'cancelled'
	      ORDER BY id FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, q, key.Venue, key.Date, key.Time)
	if err != nil {
		return nil, fmt.Errorf("select active reservations: %w", err)
	}
	return collect(rows)
}

func (t *sqlTx) OccupiedVenues(ctx context.Context, date, time string) ([]string, error) {
	const q = `SELECT venue FROM reservations
	           WHERE slot_date = ? AND slot_time = ? AND status <> 'cancelled'
	           ORDER BY id FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, q, date, time)
	if err != nil {
		return nil, fmt.Errorf("select occupied venues: %w", err)
	}
	defer rows.Close()
	var venues []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (t *sqlTx) MaxID(ctx context.Context) (uint64, error) {
	var id uint64
	err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM reservations FOR UPDATE`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select max id: %w", err)
	}
	return id, nil
}

func (t *sqlTx) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	r, err := scanReservation(t.tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return r, nil
}

func (t *sqlTx) Insert(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO reservations (id, venue, slot_date, slot_time, attendees, organizer, email, purpose,
	               purpose_category, status, priority_rank, venue_capacity, original_venue, moved_reason,
	               approved_by, approval_date, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, q,
		r.ID, r.Venue, r.Date, r.Time, r.Attendees, r.Organizer, r.Email, r.Purpose,
		string(r.PurposeCategory), string(r.Status), r.PriorityRank, nullInt(r.VenueCapacity),
		nullString(r.OriginalVenue), nullString(r.MovedReason), nullString(r.ApprovedBy),
		r.ApprovalDate, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation %d: %w", r.ID, err)
	}
	return nil
}

// Update writes the mutable columns.  priority_rank, created_at and the
// request payload are never rewritten.
func (t *sqlTx) Update(ctx context.Context, r *model.Reservation) error {
	const q = `UPDATE reservations
	           SET venue = ?, status = ?, original_venue = ?, moved_reason = ?,
	               approved_by = ?, approval_date = ?, updated_at = ?
	           WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, q,
		r.Venue, string(r.Status), nullString(r.OriginalVenue), nullString(r.MovedReason),
		nullString(r.ApprovedBy), r.ApprovalDate, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update reservation %d: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return booking.ErrRecordNotFound
	}
	return nil
}

func (t *sqlTx) Delete(ctx context.Context, id uint64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	if n == 0 {
		return booking.ErrRecordNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
