// Package config loads service settings from the environment, with an
// optional .env file for local development. Helpers fall back to defaults
// on unparseable values; only credentials are hard requirements.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Catalog struct {
	Path          string
	WatchInterval time.Duration
}

type Cache struct {
	CatalogTTL   time.Duration
	ResponseSize int
}

type Lookup struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

type RateLimit struct {
	Max    int
	Window time.Duration
}

type Guard struct {
	Cooldown   time.Duration
	MaxErrors  int
	ErrorReset time.Duration
}

type Redis struct {
	Addr     string
	CacheTTL time.Duration
}

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	Catalog   Catalog
	Cache     Cache
	Lookup    Lookup
	RateLimit RateLimit
	Guard     Guard
	Redis     Redis
}

// Load reads the environment into a Config. A .env file in the working
// directory is applied first when present; real environment variables win
// over file entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:  envStr("HTTP_ADDR", ":8080"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogPretty: envBool("LOG_PRETTY", false),

		Catalog: Catalog{
			Path:          envStr("CATALOG_PATH", "catalog.csv"),
			WatchInterval: envDuration("CATALOG_WATCH_INTERVAL", 30*time.Second),
		},

		Cache: Cache{
			CatalogTTL:   envDuration("CATALOG_CACHE_TTL", time.Hour),
			ResponseSize: envInt("RESPONSE_CACHE_SIZE", 1000),
		},

		Lookup: Lookup{
			BaseURL:     envStr("LOOKUP_BASE_URL", "https://api.upcitemdb.com/prod/trial"),
			APIKey:      strings.TrimSpace(os.Getenv("LOOKUP_API_KEY")),
			Timeout:     envDuration("LOOKUP_TIMEOUT", 5*time.Second),
			MaxRetries:  envInt("LOOKUP_MAX_RETRIES", 3),
			BackoffBase: envDuration("LOOKUP_BACKOFF_BASE", time.Second),
		},

		RateLimit: RateLimit{
			Max:    envInt("RATE_LIMIT_MAX", 100),
			Window: envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},

		Guard: Guard{
			Cooldown:   envDuration("GUARD_COOLDOWN", 2*time.Second),
			MaxErrors:  envInt("GUARD_MAX_ERRORS", 5),
			ErrorReset: envDuration("GUARD_ERROR_RESET", 5*time.Minute),
		},

		Redis: Redis{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			CacheTTL: envDuration("REDIS_CACHE_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.Lookup.APIKey == "" {
		missing = append(missing, "LOOKUP_API_KEY")
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}
	return nil
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

func envStr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %t: %v", k, v, def, err)
		return def
	}
	return b
}

// envDuration accepts Go duration strings ("90s", "5m") or plain integers,
// read as whole seconds.
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return d
}
