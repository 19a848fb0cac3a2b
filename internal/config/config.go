package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	WeatherBaseURL   string `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com/v1" validate:"required,url"`
	GeocodingBaseURL string `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com/v1" validate:"required,url"`
	// GoogleGeocoderAPIKey switches forward/reverse geocoding to Google when set.
	GoogleGeocoderAPIKey string `envconfig:"GOOGLE_GEOCODER_API_KEY"`

	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s" validate:"gte=0"`

	// DatabaseURL selects the PostgreSQL store; empty keeps everything in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// ScanInterval of 0 disables the periodic scan.
	ScanInterval    time.Duration `envconfig:"SCAN_INTERVAL" default:"0s" validate:"gte=0"`
	ScanConcurrency int           `envconfig:"SCAN_CONCURRENCY" default:"1" validate:"gte=1,lte=64"`
	AlertDedup      bool          `envconfig:"ALERT_DEDUP" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv populates AppConfig from the process environment only.
func FromEnv() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
