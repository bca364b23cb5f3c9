// Package app assembles the reservation engine and its collaborators from
// configuration.  Both the HTTP server and bookingctl start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/database"
	"github.com/iliyamo/venue-reservation/internal/lock"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/venue"
)

// Users is the identity store behind login and priority classification.
type Users interface {
	Create(ctx context.Context, email, name, password string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	RoleOf(ctx context.Context, email string) (model.Role, error)
}

// Options holds the externally created clients an App may use.  A nil
// Redis client selects the in-process lock regardless of LOCK_BACKEND.
type Options struct {
	Redis *redis.Client
}

// App is a wired engine plus the stores it runs on.
type App struct {
	Config  config.Config
	Catalog *venue.Catalog
	Pool    venue.Pool
	Users   Users
	Engine  *booking.Engine
	Redis   *redis.Client

	db *sql.DB
}

// New opens the configured store, seeds the administrator and builds the
// engine.  Call Close when done.
func New(ctx context.Context, cfg config.Config, venues config.VenueConfig, opt Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Catalog: venue.NewCatalog(venues.Catalog),
		Pool:    venues.Pool,
		Redis:   opt.Redis,
	}

	var store booking.Store
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = repository.NewMemoryStore()
		a.Users = repository.NewMemoryUsers()
	case config.DriverMySQL:
		db, err := database.Open(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = db
		store = repository.NewReservationRepo(db)
		a.Users = repository.NewUserRepo(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := a.seedAdmin(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var events booking.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL)
	}

	a.Engine = booking.NewEngine(booking.Deps{
		Store:      store,
		Identities: a.Users,
		Catalog:    a.Catalog,
		Pool:       a.Pool,
		Locker:     a.locker(),
		Events:     events,
	})
	return a, nil
}

func (a *App) locker() booking.Locker {
	lc := a.Config.Lock
	if lc.Backend == config.LockRedis {
		if a.Redis != nil {
			return lock.NewRedisLocker(a.Redis, "lock:slot", lc.TTL, lc.Wait)
		}
		log.Printf("[LOCK] redis unavailable, using in-process slot lock")
	}
	return booking.NewLocalLocker(lc.Wait)
}

// seedAdmin creates the configured administrator unless it already exists.
func (a *App) seedAdmin(ctx context.Context) error {
	adm := a.Config.Admin
	if adm.Email == "" || adm.Password == "" {
		return nil
	}
	_, err := a.Users.Create(ctx, adm.Email, "Administrator", adm.Password, model.RoleAdmin, a.Config.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Printf("seeded admin account %s", adm.Email)
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
