package config

import (
	"testing"
	"time"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_PORT", "")
	t.Setenv("LOCK_BACKEND", "")
	t.Setenv("LOCK_WAIT", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port: got %q, want 8080", cfg.Port)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("driver: got %q", cfg.Store.Driver)
	}
	if cfg.Lock.Backend != LockLocal || cfg.Lock.Wait != 2*time.Second {
		t.Fatalf("lock: got %+v", cfg.Lock)
	}
	if cfg.Events.Enabled {
		t.Fatalf("events enabled by default")
	}
	if cfg.Events.URL != "amqp://broker:5672/" {
		t.Fatalf("broker url: got %q", cfg.Events.URL)
	}
}

func TestLoadMySQL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "venues")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_WAIT", "500ms")

	cfg := Load()
	if cfg.Store.Driver != DriverMySQL || cfg.Store.DBHost != "db" || cfg.Store.DBName != "venues" {
		t.Fatalf("store: got %+v", cfg.Store)
	}
	if cfg.Lock.Backend != LockRedis || cfg.Lock.Wait != 500*time.Millisecond {
		t.Fatalf("lock: got %+v", cfg.Lock)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "Yes")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "1m")
	if !envBool("X_BOOL", false) {
		t.Errorf("envBool: want true")
	}
	if got := envInt("X_INT", 7); got != 7 {
		t.Errorf("envInt fallback: got %d, want 7", got)
	}
	if got := envDur("X_DUR", time.Second); got != time.Minute {
		t.Errorf("envDur: got %v, want 1m", got)
	}
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 {
		t.Errorf("capacity: got %d, want 1", rl.Capacity)
	}
	if rl.TTL != 5*time.Second {
		t.Errorf("ttl: got %v, want 5s", rl.TTL)
	}
}
