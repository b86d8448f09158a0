// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/guarzo/pcmatch/internal/prices"
	"github.com/guarzo/pcmatch/internal/ratelimit"
)

// Environment variables
const (
	EnvToken              = "PRICECHARTING_TOKEN"
	EnvBaseURL            = "PRICECHARTING_BASE_URL"
	EnvThrottleDelay      = "PRICECHARTING_THROTTLE_DELAY"
	EnvTimeout            = "PRICECHARTING_TIMEOUT"
	EnvEndpoints          = "PRICECHARTING_ENDPOINTS"
	EnvCachePath          = "CACHE_PATH"
	EnvCacheMaxEntries    = "CACHE_MAX_ENTRIES"
	EnvCacheSweepSchedule = "CACHE_SWEEP_SCHEDULE"
	EnvCustomSetsPath     = "CUSTOM_SETS_PATH"
	EnvPatternsPath       = "PATTERNS_PATH"
	EnvPort               = "PORT"
	EnvCORSOrigins        = "CORS_ALLOWED_ORIGINS"
)

// RecommendedKeyword selects ratelimit.RecommendedDelay for the throttle.
const RecommendedKeyword = "recommended"

// Config holds everything the server and CLI need to build a price service.
type Config struct {
	Token           string
	BaseURL         string
	ThrottleDelay   time.Duration
	Timeout         time.Duration
	SearchEndpoints []string

	// CachePath is the JSON file backing the response cache.
	CachePath string

	// CacheMaxEntries bounds the cache; zero means unbounded.
	CacheMaxEntries int

	// CacheSweepSchedule is a cron expression for removing expired entries.
	// Empty disables the sweep.
	CacheSweepSchedule string

	CustomSetsPath string

	// PatternsPath overrides the built-in recognition table when set.
	PatternsPath string

	Port        string
	CORSOrigins []string
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		BaseURL:            prices.DefaultBaseURL,
		ThrottleDelay:      ratelimit.DefaultDelay,
		Timeout:            prices.DefaultTimeout,
		SearchEndpoints:    append([]string(nil), prices.DefaultSearchEndpoints...),
		CachePath:          "./data/pricecharting_cache.json",
		CacheSweepSchedule: "@every 1h",
		CustomSetsPath:     "./data/custom_sets.json",
		Port:               "8080",
		CORSOrigins:        []string{"http://localhost:5173", "http://localhost:3000"},
	}
}

// Load reads the given .env files (".env" when none are named) into the
// environment and then builds a Config from it. Missing files are skipped;
// variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables over Default.
// Empty variables are treated as unset.
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Token = strings.TrimSpace(os.Getenv(EnvToken))
	setString(&cfg.BaseURL, EnvBaseURL)
	setString(&cfg.CachePath, EnvCachePath)
	setString(&cfg.CustomSetsPath, EnvCustomSetsPath)
	setString(&cfg.PatternsPath, EnvPatternsPath)
	setString(&cfg.Port, EnvPort)

	if v, ok := lookup(EnvThrottleDelay); ok {
		d, err := parseDelay(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvThrottleDelay, err)
		}
		cfg.ThrottleDelay = d
	}

	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s: must be positive, got %s", EnvTimeout, v)
		}
		cfg.Timeout = d
	}

	if v, ok := lookup(EnvEndpoints); ok {
		cfg.SearchEndpoints = splitList(v)
	}

	if v, ok := lookup(EnvCacheMaxEntries); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: expected a non-negative integer, got %q", EnvCacheMaxEntries, v)
		}
		cfg.CacheMaxEntries = n
	}

	// "off" disables the sweep; empty keeps the default.
	if v, ok := lookup(EnvCacheSweepSchedule); ok {
		if strings.EqualFold(v, "off") {
			cfg.CacheSweepSchedule = ""
		} else {
			cfg.CacheSweepSchedule = v
		}
	}

	if v, ok := lookup(EnvCORSOrigins); ok {
		cfg.CORSOrigins = splitList(v)
	}

	return cfg, nil
}

// parseDelay accepts a Go duration or RecommendedKeyword. Zero disables
// throttling.
func parseDelay(v string) (time.Duration, error) {
	if strings.EqualFold(v, RecommendedKeyword) {
		return ratelimit.RecommendedDelay, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", v)
	}
	return d, nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
