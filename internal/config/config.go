// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session sizing defaults and bounds
const (
	DefaultSessionTarget = 15
	MinSessionTarget     = 10
	MaxSessionTarget     = 20
)

// DefaultTimePerItem is advisory only; the scheduler does not enforce it
const DefaultTimePerItem = 30 * time.Second

// Config is the configuration surface exposed to the owning service
type Config struct {
	// DBType is "sqlite" or "postgres".
	DBType string
	// DBDSN is the sqlite file path or postgres connection string.
	DBDSN string
	// LogMode selects "dev" or "prod" logging.
	LogMode string
	// SessionTarget is the number of items per session, within [10, 20].
	SessionTarget int
	// TimePerItem is the advisory per-item time limit.
	TimePerItem time.Duration
	// BaseIntervals overrides the review interval table when non-nil.
	BaseIntervals []int
	// SweepInterval is how often abandoned sessions are swept.
	SweepInterval time.Duration
	// SessionIdleWindow is how long an open session may sit idle before the
	// sweeper abandons it.
	SessionIdleWindow time.Duration
	// RecommendSeed seeds the recommendation tie-break sampling. Zero
	// disables sampling jitter.
	RecommendSeed int64
	// ImportFile, when set, is a catalog spreadsheet to ingest on startup.
	ImportFile string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		DBType:            getEnv("DB_TYPE", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "data/revsched.db"),
		LogMode:           getEnv("LOG_MODE", "dev"),
		SessionTarget:     DefaultSessionTarget,
		TimePerItem:       DefaultTimePerItem,
		SweepInterval:     10 * time.Minute,
		SessionIdleWindow: 2 * time.Hour,
		ImportFile:        os.Getenv("IMPORT_FILE"),
	}

	if v := os.Getenv("SESSION_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid SESSION_TARGET %q: %v", v, err)
		}
		if n < MinSessionTarget || n > MaxSessionTarget {
			return nil, fmt.Errorf("config: SESSION_TARGET %d out of range [%d, %d]", n, MinSessionTarget, MaxSessionTarget)
		}
		cfg.SessionTarget = n
	}
	if v := os.Getenv("TIME_PER_ITEM_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid TIME_PER_ITEM_SECONDS %q", v)
		}
		cfg.TimePerItem = time.Duration(n) * time.Second
	}
	if v := os.Getenv("SWEEP_INTERVAL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid SWEEP_INTERVAL_MINUTES %q", v)
		}
		cfg.SweepInterval = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("SESSION_IDLE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid SESSION_IDLE_MINUTES %q", v)
		}
		cfg.SessionIdleWindow = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("RECOMMEND_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid RECOMMEND_SEED %q: %v", v, err)
		}
		cfg.RecommendSeed = n
	}
	if v := os.Getenv("BASE_INTERVALS"); v != "" {
		table, err := parseIntervals(v)
		if err != nil {
			return nil, err
		}
		cfg.BaseIntervals = table
	}
	return cfg, nil
}

// parseIntervals parses a comma-separated table like "0,1,3,7,14,30,90,180"
func parseIntervals(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("config: invalid BASE_INTERVALS entry %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
