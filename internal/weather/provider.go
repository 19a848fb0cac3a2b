package weather

import (
	"context"
)

// RawForecast mirrors the Open-Meteo forecast response. Values are metric.
// Blocks are pointers so a missing block is distinguishable from an empty one.
type RawForecast struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timezone  string      `json:"timezone"`
	Current   *RawCurrent `json:"current"`
	Hourly    *RawHourly  `json:"hourly"`
	Daily     *RawDaily   `json:"daily"`
}

type RawCurrent struct {
	Time                string   `json:"time"`
	Temperature         *float64 `json:"temperature_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	RelativeHumidity    *float64 `json:"relative_humidity_2m"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	Precipitation       *float64 `json:"precipitation"`
	WeatherCode         *int     `json:"weather_code"`
}

type RawHourly struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	WeatherCode   []int     `json:"weather_code"`
	WindSpeed     []float64 `json:"wind_speed_10m"`
	Precipitation []float64 `json:"precipitation"`
}

type RawDaily struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weather_code"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
}

// Fetcher abstracts a forecast source. Implementations always return metric values.
type Fetcher interface {
	Name() string
	FetchForecast(ctx context.Context, coords Coordinates) (RawForecast, error)
}

// Resolver performs forward and reverse geocoding.
type Resolver interface {
	// Search returns the best match for a city name or ErrLocationNotFound.
	Search(ctx context.Context, city string) (Location, error)
	// Reverse names the place at coords.
	Reverse(ctx context.Context, coords Coordinates) (Location, error)
}
