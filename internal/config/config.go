package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                   string
	DBDriver               string
	DBDSN                  string
	LogLevel               string
	LogColors              bool
	Timezone               string
	JWTSecret              string
	JWTIssuer              string
	TokenTTL               time.Duration
	RedisAddr              string
	RedisPassword          string
	LockTTL                time.Duration
	AggregationWorkerCount int
	AggregationQueueSize   int
	SweepInterval          time.Duration
	SweepConcurrency       int
	ActivityRateLimit      float64
	ActivityRateBurst      int
	MaxImportBytes         int64
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                   envOr("ADDR", ":8080"),
		DBDriver:               envOr("DB_DRIVER", "sqlite3"),
		DBDSN:                  envOr("DB_DSN", "file:lingobox.db"),
		LogLevel:               envOr("LOG_LEVEL", "INFO"),
		LogColors:              envBoolOr("LOG_COLORS", true),
		Timezone:               envOr("TIMEZONE", "UTC"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              envOr("JWT_ISSUER", "lingobox"),
		TokenTTL:               envDurationOr("TOKEN_TTL", 720*time.Hour),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		LockTTL:                envDurationOr("LOCK_TTL", 10*time.Second),
		AggregationWorkerCount: envIntOr("AGGREGATION_WORKER_COUNT", 2),
		AggregationQueueSize:   envIntOr("AGGREGATION_QUEUE_SIZE", 64),
		SweepInterval:          envDurationOr("SWEEP_INTERVAL", 15*time.Minute),
		SweepConcurrency:       envIntOr("SWEEP_CONCURRENCY", 4),
		ActivityRateLimit:      envFloatOr("ACTIVITY_RATE_LIMIT", 10),
		ActivityRateBurst:      envIntOr("ACTIVITY_RATE_BURST", 20),
		MaxImportBytes:         int64(envIntOr("MAX_IMPORT_BYTES", 5<<20)),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN cannot be empty"))
	}
	if !validLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	} else {
		c.LogLevel = strings.ToUpper(c.LogLevel)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE is not a valid IANA zone: %q", c.Timezone))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	if c.AggregationWorkerCount <= 0 {
		errs = append(errs, errors.New("AGGREGATION_WORKER_COUNT must be positive"))
	}
	if c.AggregationQueueSize <= 0 {
		errs = append(errs, errors.New("AGGREGATION_QUEUE_SIZE must be positive"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL cannot be negative"))
	}
	if c.SweepConcurrency <= 0 {
		errs = append(errs, errors.New("SWEEP_CONCURRENCY must be positive"))
	}
	if c.ActivityRateLimit <= 0 {
		errs = append(errs, errors.New("ACTIVITY_RATE_LIMIT must be positive"))
	}
	if c.ActivityRateBurst <= 0 {
		errs = append(errs, errors.New("ACTIVITY_RATE_BURST must be positive"))
	}
	if c.MaxImportBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMPORT_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone, UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validLogLevel(s string) bool {
	switch strings.ToUpper(s) {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return true
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
