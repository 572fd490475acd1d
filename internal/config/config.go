// Package config loads the HTTP collaborator's runtime configuration
// from the environment, following the same .env-then-os.Getenv pattern
// the rest of the pack uses.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the small immutable configuration struct the Design Notes
// call for: simulation tuning never lives in package-level globals.
type Config struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxBodyBytes       int64
	RedisAddr          string
	RedisCacheTTL      time.Duration
	PostgresDSN        string
	AuditTrailEnabled  bool
	OTelExporterTarget string
}

// Load reads a .env file if present (missing file is not an error,
// matching godotenv.Load's own semantics), then layers environment
// variables over the defaults below.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:               getEnv("FINSIM_ADDR", ":5058"),
		ReadTimeout:        getDuration("FINSIM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("FINSIM_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:        getDuration("FINSIM_IDLE_TIMEOUT", 240*time.Second),
		MaxBodyBytes:       getInt64("FINSIM_MAX_BODY_BYTES", 1<<20),
		RedisAddr:          getEnv("FINSIM_REDIS_ADDR", "localhost:6379"),
		RedisCacheTTL:      getDuration("FINSIM_REDIS_CACHE_TTL", 5*time.Minute),
		PostgresDSN:        getEnv("FINSIM_POSTGRES_DSN", ""),
		AuditTrailEnabled:  getBool("FINSIM_AUDIT_TRAIL_ENABLED", false),
		OTelExporterTarget: getEnv("FINSIM_OTEL_TARGET", ""),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
