package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-alerts/internal/weather"
)

const forecastBody = `{
  "latitude": 52.52, "longitude": 13.41, "timezone": "Europe/Berlin",
  "current": {"time": "2024-06-01T12:00", "temperature_2m": 33.2, "relative_humidity_2m": 40,
              "apparent_temperature": 34.1, "precipitation": 0, "weather_code": 1, "wind_speed_10m": 9.4},
  "hourly": {"time": ["2024-06-01T00:00","2024-06-01T01:00"], "temperature_2m": [20.1, 19.5],
             "weather_code": [0, 0], "wind_speed_10m": [5, 6], "precipitation": [0, 0]},
  "daily": {"time": ["2024-06-01"], "weather_code": [1], "temperature_2m_max": [34],
            "temperature_2m_min": [18], "precipitation_sum": [0]}
}`

func fastClient(name string, c *http.Client) *resilientClient {
	return newResilientClient(name, c, BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})
}

func TestOpenMeteo_FetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "52.52", q.Get("latitude"))
		assert.Equal(t, "13.41", q.Get("longitude"))
		assert.Equal(t, "celsius", q.Get("temperature_unit"))
		assert.Equal(t, "kmh", q.Get("wind_speed_unit"))
		assert.Equal(t, "mm", q.Get("precipitation_unit"))
		assert.Equal(t, "7", q.Get("forecast_days"))
		assert.Contains(t, q.Get("current"), "apparent_temperature")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	raw, err := p.FetchForecast(context.Background(), weather.Coordinates{Latitude: 52.52, Longitude: 13.41})
	require.NoError(t, err)

	require.NotNil(t, raw.Current)
	assert.Equal(t, 33.2, *raw.Current.Temperature)
	assert.Equal(t, 1, *raw.Current.WeatherCode)
	require.NotNil(t, raw.Hourly)
	assert.Equal(t, []float64{20.1, 19.5}, raw.Hourly.Temperature)
	require.NotNil(t, raw.Daily)
	assert.Equal(t, []float64{34}, raw.Daily.TemperatureMax)
	assert.Equal(t, "openmeteo", p.Name())
}

func TestOpenMeteo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.http = fastClient("retry", srv.Client())

	_, err := p.FetchForecast(context.Background(), weather.Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenMeteo_ClientErrorIsUpstreamUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.http = fastClient("client-error", srv.Client())

	_, err := p.FetchForecast(context.Background(), weather.Coordinates{})
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestOpenMeteo_BadJSONIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"current": [`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchForecast(context.Background(), weather.Coordinates{})
	assert.ErrorIs(t, err, weather.ErrMalformedPayload)
}

func TestOpenMeteo_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchForecast(ctx, weather.Coordinates{})
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
}
