package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.open-meteo.com/v1", cfg.WeatherBaseURL)
	assert.Equal(t, "https://geocoding-api.open-meteo.com/v1", cfg.GeocodingBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.ScanInterval)
	assert.Equal(t, 1, cfg.ScanConcurrency)
	assert.False(t, cfg.AlertDedup)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCAN_INTERVAL", "15m")
	t.Setenv("SCAN_CONCURRENCY", "4")
	t.Setenv("ALERT_DEDUP", "true")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DATABASE_URL", "postgres://localhost/alerts")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 4, cfg.ScanConcurrency)
	assert.True(t, cfg.AlertDedup)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "postgres://localhost/alerts", cfg.DatabaseURL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"bad duration":    {"HTTP_TIMEOUT", "soon"},
		"zero timeout":    {"HTTP_TIMEOUT", "0s"},
		"bad concurrency": {"SCAN_CONCURRENCY", "0"},
		"bad url":         {"WEATHER_BASE_URL", "not a url"},
		"bad log format":  {"LOG_FORMAT", "xml"},
		"bad port":        {"PORT", "http"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
