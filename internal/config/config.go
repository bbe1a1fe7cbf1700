// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"foodprod/internal/core/apperror"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Lock drivers.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config is the full process configuration.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	StorageDriver string
	DatabaseURL   string
	DBMaxConns    int
	DBMinConns    int

	LockDriver   string
	RedisAddress string
	LockTTL      time.Duration

	ReconcileInterval     time.Duration
	ApplyCompoundQuantity bool
	SeedDemoData          bool
}

// Development reports whether logs should be human readable.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds Config from the current environment only. A value that
// is set but does not parse is an error, not a silent default.
func FromEnv() (Config, error) {
	env := &envReader{}
	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("APP_PORT", "8080"),

		StorageDriver: getEnv("STORAGE_DRIVER", StoragePostgres),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    env.getInt("DB_MAX_CONNS", 10),
		DBMinConns:    env.getInt("DB_MIN_CONNS", 2),

		LockDriver:   getEnv("LOCK_DRIVER", LockLocal),
		RedisAddress: getEnv("REDIS_ADDRESS", "localhost:6379"),
		LockTTL:      env.getDuration("LOCK_TTL", 30*time.Second),

		ReconcileInterval:     env.getDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ApplyCompoundQuantity: env.getBool("APPLY_COMPOUND_QUANTITY", false),
		SeedDemoData:          env.getBool("SEED_DEMO_DATA", false),
	}
	if env.err != nil {
		return Config{}, env.err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks driver names and required settings.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return invalid("DATABASE_URL", "", "required when STORAGE_DRIVER=postgres")
		}
	case StorageMemory:
	default:
		return invalid("STORAGE_DRIVER", c.StorageDriver, "must be postgres or memory")
	}

	switch c.LockDriver {
	case LockLocal:
	case LockRedis:
		if c.RedisAddress == "" {
			return invalid("REDIS_ADDRESS", "", "required when LOCK_DRIVER=redis")
		}
	default:
		return invalid("LOCK_DRIVER", c.LockDriver, "must be local or redis")
	}

	if c.DBMaxConns < 1 {
		return invalid("DB_MAX_CONNS", strconv.Itoa(c.DBMaxConns), "must be at least 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return invalid("DB_MIN_CONNS", strconv.Itoa(c.DBMinConns), "must not exceed DB_MAX_CONNS")
	}
	if c.LockTTL <= 0 {
		return invalid("LOCK_TTL", c.LockTTL.String(), "must be positive")
	}
	if c.ReconcileInterval <= 0 {
		return invalid("RECONCILE_INTERVAL", c.ReconcileInterval.String(), "must be positive")
	}
	return nil
}

func invalid(key, value, reason string) error {
	return apperror.NewValidation(fmt.Sprintf("invalid configuration: %s %s", key, reason)).
		WithDetail("key", key).
		WithDetail("value", value)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader keeps the first parse failure.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value, reason string) {
	if r.err == nil {
		r.err = invalid(key, value, reason)
	}
}

func (r *envReader) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, "must be an integer")
		return defaultValue
	}
	return n
}

func (r *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, "must be a duration such as 30s or 5m")
		return defaultValue
	}
	return d
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, "must be true or false")
		return defaultValue
	}
	return b
}
