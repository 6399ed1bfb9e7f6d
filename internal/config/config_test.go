package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("METLINK_API_KEY", "secret")
	t.Setenv("ROUTE_ID", "83")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "83", cfg.RouteID)
	assert.Equal(t, "https://api.opendata.metlink.org.nz/v1", cfg.BaseURL)
	assert.Equal(t, []int{0, 1}, cfg.Directions)
	assert.Equal(t, 30*time.Second, cfg.ScanInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("METLINK_API_KEY", "")
	t.Setenv("ROUTE_ID", "83")
	_, err := Load()
	assert.EqualError(t, err, "METLINK_API_KEY must be set")

	t.Setenv("METLINK_API_KEY", "secret")
	t.Setenv("ROUTE_ID", "")
	_, err = Load()
	assert.EqualError(t, err, "ROUTE_ID must be set")
}

func TestLoadDirections(t *testing.T) {
	tests := []struct {
		value   string
		want    []int
		wantErr bool
	}{
		{"0", []int{0}, false},
		{"1", []int{1}, false},
		{"0,1", []int{0, 1}, false},
		{"1, 0", []int{1, 0}, false},
		{"2", nil, true},
		{"north", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("DIRECTION_ID", tt.value)

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Directions)
		})
	}
}

func TestLoadDurationOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCAN_INTERVAL_SEC", "60")
	t.Setenv("REQUEST_TIMEOUT_SEC", "5")
	t.Setenv("CATALOG_TTL_SEC", "600")
	t.Setenv("PREDICTION_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.ScanInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct{ key, value string }{
		{"SCAN_INTERVAL_SEC", "0"},
		{"SCAN_INTERVAL_SEC", "-5"},
		{"REQUEST_TIMEOUT_SEC", "fast"},
		{"PREDICTION_CONCURRENCY", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDirectionLabel(t *testing.T) {
	cfg := &Config{RouteLongName: "Wellington Station - Masterton"}

	assert.Equal(t, "Wellington Station - Masterton", cfg.DirectionLabel(0))
	assert.Equal(t, "Masterton - Wellington Station", cfg.DirectionLabel(1))
}

func TestReverseRouteName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two segments", "Wellington - Masterton", "Masterton - Wellington"},
		{"three segments", "Courtenay Place - Petone - Eastbourne", "Eastbourne - Petone - Courtenay Place"},
		{"single segment unchanged", "Melling Line", "Melling Line"},
		{"empty", "", ""},
		{"hyphen without spaces not a separator", "Kelburn-Karori", "Kelburn-Karori"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReverseRouteName(tt.in))
		})
	}
}
