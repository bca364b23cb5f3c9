package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/utils"
)

// MemoryStore keeps reservations in process memory.  Transactions are
// serialized by a single mutex and work on a copy of the table that
// replaces the live one only when fn returns nil.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uint64]model.Reservation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uint64]model.Reservation)}
}

// WithinTx implements booking.Store.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{rows: make(map[uint64]model.Reservation, len(s.rows))}
	for id, r := range s.rows {
		tx.rows[id] = r
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.rows = tx.rows
	return nil
}

// List implements booking.Store.
func (s *MemoryStore) List(_ context.Context, f booking.Filter) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(f.Email)
	out := make([]model.Reservation, 0, len(s.rows))
	for _, r := range s.rows {
		if email != "" && strings.ToLower(r.Email) != email {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityRank != out[j].PriorityRank {
			return out[i].PriorityRank < out[j].PriorityRank
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountByStatus implements booking.Store.
func (s *MemoryStore) CountByStatus(context.Context) (map[model.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.Status]int)
	for _, r := range s.rows {
		counts[r.Status]++
	}
	return counts, nil
}

type memTx struct {
	rows map[uint64]model.Reservation
}

func (t *memTx) sorted(keep func(model.Reservation) bool) []model.Reservation {
	var out []model.Reservation
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, *r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) ActiveAt(_ context.Context, key model.SlotKey) ([]model.Reservation, error) {
	return t.sorted(func(r model.Reservation) bool {
		return r.Key() == key && r.Status != model.StatusCancelled
	}), nil
}

func (t *memTx) OccupiedVenues(_ context.Context, date, tm string) ([]string, error) {
	rows := t.sorted(func(r model.Reservation) bool {
		return r.Date == date && r.Time == tm && r.Status != model.StatusCancelled
	})
	venues := make([]string, 0, len(rows))
	for _, r := range rows {
		venues = append(venues, r.Venue)
	}
	return venues, nil
}

func (t *memTx) MaxID(context.Context) (uint64, error) {
	var highest uint64
	for id := range t.rows {
		if id > highest {
			highest = id
		}
	}
	return highest, nil
}

func (t *memTx) Get(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.rows[id]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (t *memTx) Insert(_ context.Context, r *model.Reservation) error {
	if _, ok := t.rows[r.ID]; ok {
		return fmt.Errorf("insert reservation %d: duplicate id", r.ID)
	}
	t.rows[r.ID] = *r.Clone()
	return nil
}

func (t *memTx) Update(_ context.Context, r *model.Reservation) error {
	if _, ok := t.rows[r.ID]; !ok {
		return booking.ErrRecordNotFound
	}
	t.rows[r.ID] = *r.Clone()
	return nil
}

func (t *memTx) Delete(_ context.Context, id uint64) error {
	if _, ok := t.rows[id]; !ok {
		return booking.ErrRecordNotFound
	}
	delete(t.rows, id)
	return nil
}

// MemoryUsers is an in-memory identity store keyed by lower-cased email.
type MemoryUsers struct {
	mu     sync.RWMutex
	users  map[string]model.User
	nextID uint64
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]model.User)}
}

// Create adds a user with a bcrypt-hashed password.
func (m *MemoryUsers) Create(_ context.Context, email, name, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return 0, ErrEmailExists
	}
	m.nextID++
	now := time.Now().UTC()
	m.users[email] = model.User{
		ID:           m.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return m.nextID, nil
}

// SetRole registers email with role and no password.  It is how
// development setups and tests seed the role directory.
func (m *MemoryUsers) SetRole(email string, role model.Role) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		m.nextID++
		u = model.User{ID: m.nextID, Email: email, CreatedAt: time.Now().UTC()}
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	m.users[email] = u
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// RoleOf implements booking.IdentityStore.
func (m *MemoryUsers) RoleOf(_ context.Context, email string) (model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]; ok {
		return u.Role, nil
	}
	return model.RoleOther, nil
}
