package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config is loaded once at startup and treated as immutable afterwards.
// In particular the JWT secret is never re-read or rotated at runtime.
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	JWTSecret       string
	TokenTTL        time.Duration
	MaxRequestBytes int64
	AuthRatePerMin  int
}

func Load() Config {
	cfg := Config{
		HTTPAddr:        getEnv("COURSEMARKET_HTTP_ADDR", ":8080"),
		DatabaseDSN:     getEnv("COURSEMARKET_DB_DSN", "file:coursemarket.db?cache=shared&mode=rwc"),
		JWTSecret:       getEnv("COURSEMARKET_JWT_SECRET", "dev-secret-change"),
		TokenTTL:        getEnvDuration("COURSEMARKET_TOKEN_TTL", 24*time.Hour),
		MaxRequestBytes: getEnvInt64("COURSEMARKET_MAX_REQUEST_BYTES", 1<<20),
		AuthRatePerMin:  int(getEnvInt64("COURSEMARKET_AUTH_RPM", 30)),
	}
	if cfg.JWTSecret == "dev-secret-change" {
		log.Println("WARNING: using development JWT secret; set COURSEMARKET_JWT_SECRET")
	}
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("WARNING: invalid duration in %s, using default %s", key, def)
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		log.Printf("WARNING: invalid integer in %s, using default %d", key, def)
	}
	return def
}
