package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/DSBisht13/Weather-Union/internal/logging"
)

type AppConfig struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// Reference tables and output root.
	LocationsCSV  string `validate:"required"`
	APIKeysCSV    string `validate:"required"`
	OutputBaseDir string `validate:"required"`

	// Weather Union endpoint.
	BaseURL        string        `validate:"required,url"`
	KeyHeader      string        `validate:"required"`
	LocalityParam  string        `validate:"required"`
	MaxCallsPerKey int           `validate:"gte=1"`
	HTTPTimeout    time.Duration `validate:"gt=0"`

	// BreakerMaxFailures trips the circuit breaker after that many
	// consecutive transport/5xx failures (0 = never).
	BreakerMaxFailures int `validate:"gte=0"`

	// FetchInterval schedules repeated runs; 0 runs once and exits.
	FetchInterval time.Duration `validate:"gte=0"`

	// In-memory run summary retention.
	StoreMaxHistory int           // max number of summaries (0 = unlimited)
	StoreMaxAge     time.Duration // max age of summaries (0 = unlimited)

	// SQLitePath enables the record mirror when set.
	SQLitePath string

	Port string
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file, when
// present) with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal; real environment variables win.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.LocationsCSV = getenvDefault("LOCATIONS_CSV", "")
	cfg.APIKeysCSV = getenvDefault("API_KEYS_CSV", "")
	cfg.OutputBaseDir = getenvDefault("OUTPUT_BASE_DIR", "output")

	cfg.BaseURL = getenvDefault("WEATHER_API_BASE_URL", "")
	cfg.KeyHeader = getenvDefault("API_KEY_HEADER", "x-zomato-api-key")
	cfg.LocalityParam = getenvDefault("LOCALITY_PARAM", "locality_id")

	if cfg.MaxCallsPerKey, err = getenvInt("MAX_CALLS_PER_KEY", 1000); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BreakerMaxFailures, err = getenvInt("BREAKER_MAX_FAILURES", 0); err != nil {
		return nil, err
	}

	// Scheduler interval: empty means a single run.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	// Store retention.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Scheduled reports whether runs repeat on an interval.
func (c *AppConfig) Scheduled() bool {
	return c.FetchInterval > 0
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
