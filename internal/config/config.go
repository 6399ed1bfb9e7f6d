package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "https://api.opendata.metlink.org.nz/v1"

// Config holds the upstream and polling settings for the timeline service.
// Server-level settings (port, environment) are read from command-line flags
// in cmd/api; everything that identifies the upstream feed and the watched
// route comes from the environment.
type Config struct {
	APIKey         string
	BaseURL        string
	RouteID        string
	RouteShortName string
	RouteLongName  string
	Directions     []int
	ScanInterval   time.Duration
	RequestTimeout time.Duration
	CatalogTTL     time.Duration
	Concurrency    int
}

// Load reads configuration from the environment, loading a .env file first
// if one is present.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL: getenvDefault("METLINK_BASE_URL", defaultBaseURL),
		APIKey:  os.Getenv("METLINK_API_KEY"),
	}
	if cfg.APIKey == "" {
		return nil, errors.New("METLINK_API_KEY must be set")
	}

	cfg.RouteID = os.Getenv("ROUTE_ID")
	if cfg.RouteID == "" {
		return nil, errors.New("ROUTE_ID must be set")
	}
	cfg.RouteShortName = os.Getenv("ROUTE_SHORT_NAME")
	cfg.RouteLongName = os.Getenv("ROUTE_LONG_NAME")

	// DIRECTION_ID accepts "0", "1" or "0,1"; when unset both directions
	// are watched, matching how the host integration registered a sensor
	// per direction.
	if v := os.Getenv("DIRECTION_ID"); v != "" {
		for _, part := range strings.Split(v, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || (d != 0 && d != 1) {
				return nil, fmt.Errorf("invalid DIRECTION_ID: %q", v)
			}
			cfg.Directions = append(cfg.Directions, d)
		}
	} else {
		cfg.Directions = []int{0, 1}
	}

	var err error
	cfg.ScanInterval, err = durationFromSeconds("SCAN_INTERVAL_SEC", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = durationFromSeconds("REQUEST_TIMEOUT_SEC", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.CatalogTTL, err = durationFromSeconds("CATALOG_TTL_SEC", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PREDICTION_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid PREDICTION_CONCURRENCY: %q", v)
		}
		cfg.Concurrency = n
	} else {
		cfg.Concurrency = 4
	}

	return cfg, nil
}

// DirectionLabel returns the human-facing direction name derived from the
// configured route long name. Direction 1 reverses the " - " separated
// segments, matching how the upstream names return journeys.
func (c *Config) DirectionLabel(directionID int) string {
	if directionID == 0 {
		return c.RouteLongName
	}
	return ReverseRouteName(c.RouteLongName)
}

func durationFromSeconds(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(sec) * time.Second, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
