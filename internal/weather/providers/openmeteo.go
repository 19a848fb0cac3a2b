package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-alerts/internal/weather"
)

// DefaultOpenMeteoURL is the public Open-Meteo API root.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1"

var (
	currentVars = []string{"temperature_2m", "relative_humidity_2m", "apparent_temperature", "precipitation", "weather_code", "wind_speed_10m"}
	hourlyVars  = []string{"temperature_2m", "weather_code", "wind_speed_10m", "precipitation"}
	dailyVars   = []string{"weather_code", "temperature_2m_max", "temperature_2m_min", "precipitation_sum"}
)

// OpenMeteoProvider implements weather.Fetcher against the Open-Meteo forecast API.
// It always requests metric units.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	http    *resilientClient
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newResilientClient("openmeteo", client, DefaultBackoff),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, coords weather.Coordinates) (weather.RawForecast, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	values.Set("current", strings.Join(currentVars, ","))
	values.Set("hourly", strings.Join(hourlyVars, ","))
	values.Set("daily", strings.Join(dailyVars, ","))
	values.Set("temperature_unit", "celsius")
	values.Set("wind_speed_unit", "kmh")
	values.Set("precipitation_unit", "mm")
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(weather.DailyWindow))

	body, err := p.http.get(ctx, fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.RawForecast{}, err
	}

	var payload weather.RawForecast
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.RawForecast{}, fmt.Errorf("%w: decode forecast: %v", weather.ErrMalformedPayload, err)
	}
	return payload, nil
}
