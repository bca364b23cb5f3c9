// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Lock backends accepted in LOCK_BACKEND.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config holds all runtime configuration values.
type Config struct {
	Env          string // application environment (dev, test, prod)
	Port         string // HTTP port to listen on
	Store        StoreConfig
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	Lock         LockConfig
	Events       EventsConfig
	Admin        AdminConfig
}

// StoreConfig selects and configures the reservation store.  The DB_*
// fields are only read when Driver is mysql.
type StoreConfig struct {
	Driver string
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
}

// LockConfig configures slot serialization.
type LockConfig struct {
	Backend string
	Wait    time.Duration // how long a request waits for a busy slot
	TTL     time.Duration // expiry of a redis lock
}

// EventsConfig configures the audit event publisher and consumer.
type EventsConfig struct {
	Enabled      bool
	URL          string
	AuditLogPath string
}

// AdminConfig seeds the administrator account on startup.  Empty values
// skip seeding.
type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration values from environment variables.  Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8080"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		Store:        StoreConfig{Driver: strings.ToLower(envStr("STORE_DRIVER", DriverMySQL))},
		Lock: LockConfig{
			Backend: strings.ToLower(envStr("LOCK_BACKEND", LockLocal)),
			Wait:    envDur("LOCK_WAIT", 2*time.Second),
			TTL:     envDur("LOCK_TTL", 10*time.Second),
		},
		Events: EventsConfig{
			Enabled:      envBool("EVENTS_ENABLED", false),
			URL:          brokerURL(),
			AuditLogPath: envStr("AUDIT_LOG_PATH", "logs/reservations.log"),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
	switch cfg.Store.Driver {
	case DriverMySQL:
		cfg.Store.DBUser = must("DB_USER")
		cfg.Store.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.Store.DBHost = must("DB_HOST")
		cfg.Store.DBPort = must("DB_PORT")
		cfg.Store.DBName = must("DB_NAME")
	case DriverMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.Store.Driver)
	}
	if cfg.Lock.Backend != LockLocal && cfg.Lock.Backend != LockRedis {
		log.Fatalf("invalid LOCK_BACKEND %q (want local or redis)", cfg.Lock.Backend)
	}
	return cfg
}

func brokerURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
