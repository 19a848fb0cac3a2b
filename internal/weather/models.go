package weather

import (
	"fmt"
	"time"
)

// UnitSystem selects how a snapshot is presented to clients.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// ParseUnits maps a request value to a UnitSystem, defaulting to metric.
func ParseUnits(s string) UnitSystem {
	if UnitSystem(s) == UnitsImperial {
		return UnitsImperial
	}
	return UnitsMetric
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both values are within their geographic bounds.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Location identifies a place a snapshot belongs to.
// City/Country are display labels, Coordinates drive the forecast fetch.
type Location struct {
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
}

// Key returns a canonical string key for indexing this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

func (l Location) String() string {
	return fmt.Sprintf("%s, %s", l.City, l.Country)
}

// CurrentConditions holds the observed values at fetch time.
type CurrentConditions struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	Precipitation float64 `json:"precipitation"`
	WeatherCode   int     `json:"weatherCode"`
	Description   string  `json:"description"`
}

// HourlyEntry is one slot of the short-range forecast.
type HourlyEntry struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	WeatherCode   int     `json:"weatherCode"`
	WindSpeed     float64 `json:"windSpeed"`
	Precipitation float64 `json:"precipitation"`
	Description   string  `json:"description"`
}

// DailyEntry is one day of the extended forecast.
type DailyEntry struct {
	Date          string  `json:"date"`
	DayName       string  `json:"dayName"`
	MaxTemp       float64 `json:"maxTemp"`
	MinTemp       float64 `json:"minTemp"`
	WeatherCode   int     `json:"weatherCode"`
	Precipitation float64 `json:"precipitation"`
	Description   string  `json:"description"`
}

// WeatherSnapshot is the normalized forecast for one location at one fetch instant.
// Values are in Units; alert evaluation only ever sees metric snapshots.
type WeatherSnapshot struct {
	Location    Location          `json:"location"`
	Units       UnitSystem        `json:"units"`
	Current     CurrentConditions `json:"current"`
	Hourly      []HourlyEntry     `json:"hourly"`
	Daily       []DailyEntry      `json:"daily"`
	LastUpdated time.Time         `json:"lastUpdated"` // always UTC
}
