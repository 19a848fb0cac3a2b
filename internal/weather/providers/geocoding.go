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

// DefaultGeocodingURL is the public Open-Meteo geocoding API root.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// OpenMeteoGeocoder implements weather.Resolver using Open-Meteo geocoding.
type OpenMeteoGeocoder struct {
	baseURL string
	http    *resilientClient
}

func NewOpenMeteoGeocoder(client *http.Client, baseURL string) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &OpenMeteoGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newResilientClient("openmeteo-geocoding", client, DefaultBackoff),
	}
}

func (g *OpenMeteoGeocoder) Search(ctx context.Context, city string) (weather.Location, error) {
	values := url.Values{
		"name":     {city},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}
	return g.first(ctx, fmt.Sprintf("%s/search?%s", g.baseURL, values.Encode()))
}

func (g *OpenMeteoGeocoder) Reverse(ctx context.Context, coords weather.Coordinates) (weather.Location, error) {
	values := url.Values{
		"latitude":  {strconv.FormatFloat(coords.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(coords.Longitude, 'f', -1, 64)},
		"count":     {"1"},
		"language":  {"en"},
		"format":    {"json"},
	}
	loc, err := g.first(ctx, fmt.Sprintf("%s/reverse?%s", g.baseURL, values.Encode()))
	if err != nil {
		return weather.Location{}, err
	}
	loc.Coordinates = coords
	return loc, nil
}

func (g *OpenMeteoGeocoder) first(ctx context.Context, u string) (weather.Location, error) {
	body, err := g.http.get(ctx, u)
	if err != nil {
		return weather.Location{}, err
	}

	var payload geocodingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Location{}, fmt.Errorf("%w: decode geocoding: %v", weather.ErrMalformedPayload, err)
	}
	if len(payload.Results) == 0 {
		return weather.Location{}, weather.ErrLocationNotFound
	}

	r := payload.Results[0]
	return weather.Location{
		City:    r.Name,
		Country: r.Country,
		Coordinates: weather.Coordinates{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		},
	}, nil
}
