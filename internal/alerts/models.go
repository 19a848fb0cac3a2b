package alerts

import (
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-alerts/internal/common"
	"github.com/i474232898/weather-alerts/internal/weather"
)

// AlertType is the rule family that produced an alert.
type AlertType string

const (
	TypeTemperature   AlertType = "temperature"
	TypeWind          AlertType = "wind"
	TypePrecipitation AlertType = "precipitation"
	TypeSevereWeather AlertType = "severe_weather"
)

// Severity orders alerts: minor < moderate < warning < severe.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityWarning  Severity = "warning"
	SeveritySevere   Severity = "severe"
)

var severityRank = map[Severity]int{
	SeverityMinor:    1,
	SeverityModerate: 2,
	SeverityWarning:  3,
	SeveritySevere:   4,
}

// Rank returns the ordinal of s, 0 for unknown values.
func (s Severity) Rank() int { return severityRank[s] }

// DefaultSevereCodes apply when a preference leaves severeCodes unset.
var DefaultSevereCodes = []int{95, 96, 99}

// AlertPreference is a user rule scoped to one city/country pair.
// Nil thresholds disable their rule.
type AlertPreference struct {
	ID                     string    `json:"id"`
	City                   string    `json:"city"`
	Country                string    `json:"country"`
	Latitude               float64   `json:"latitude"`
	Longitude              float64   `json:"longitude"`
	MinTempThreshold       *float64  `json:"minTempThreshold"`
	MaxTempThreshold       *float64  `json:"maxTempThreshold"`
	WindSpeedThreshold     *float64  `json:"windSpeedThreshold"`
	PrecipitationThreshold *float64  `json:"precipitationThreshold"`
	SevereCodes            *string   `json:"severeCodes"`
	IsEnabled              bool      `json:"isEnabled"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Location returns the scope of the preference as a weather.Location.
func (p AlertPreference) Location() weather.Location {
	return weather.Location{
		City:    p.City,
		Country: p.Country,
		Coordinates: weather.Coordinates{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		},
	}
}

// Matches reports whether the preference is scoped to city/country (exact match).
func (p AlertPreference) Matches(city, country string) bool {
	return p.City == city && p.Country == country
}

// SevereCodeSet parses SevereCodes into a set. Unparseable tokens are skipped;
// an unset or blank value yields DefaultSevereCodes.
func (p AlertPreference) SevereCodeSet() map[int]struct{} {
	set := make(map[int]struct{})
	if p.SevereCodes == nil || strings.TrimSpace(*p.SevereCodes) == "" {
		for _, c := range DefaultSevereCodes {
			set[c] = struct{}{}
		}
		return set
	}
	for _, tok := range strings.Split(*p.SevereCodes, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// PreferenceInput is the body accepted when creating a preference.
type PreferenceInput struct {
	City                   string   `json:"city" validate:"required"`
	Country                string   `json:"country" validate:"required"`
	Latitude               *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude              *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	MinTempThreshold       *float64 `json:"minTempThreshold"`
	MaxTempThreshold       *float64 `json:"maxTempThreshold"`
	WindSpeedThreshold     *float64 `json:"windSpeedThreshold" validate:"omitempty,min=0"`
	PrecipitationThreshold *float64 `json:"precipitationThreshold" validate:"omitempty,min=0"`
	SevereCodes            *string  `json:"severeCodes"`
	IsEnabled              *bool    `json:"isEnabled"`
}

// Clean normalizes the scope labels of the input.
func (in PreferenceInput) Clean() PreferenceInput {
	in.City = common.CleanLabel(in.City)
	in.Country = common.CleanLabel(in.Country)
	return in
}

// NewPreference materializes a preference from validated input.
func NewPreference(id string, in PreferenceInput, now time.Time) AlertPreference {
	in = in.Clean()
	enabled := true
	if in.IsEnabled != nil {
		enabled = *in.IsEnabled
	}
	return AlertPreference{
		ID:                     id,
		City:                   in.City,
		Country:                in.Country,
		Latitude:               deref(in.Latitude),
		Longitude:              deref(in.Longitude),
		MinTempThreshold:       in.MinTempThreshold,
		MaxTempThreshold:       in.MaxTempThreshold,
		WindSpeedThreshold:     in.WindSpeedThreshold,
		PrecipitationThreshold: in.PrecipitationThreshold,
		SevereCodes:            in.SevereCodes,
		IsEnabled:              enabled,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// PreferencePatch is a partial update. Nil scope and flag fields keep their
// stored value. Thresholds and severe codes are Optional: an absent key keeps
// the stored value, an explicit null clears it and disables that rule.
type PreferencePatch struct {
	City                   *string           `json:"city" validate:"omitempty,min=1"`
	Country                *string           `json:"country" validate:"omitempty,min=1"`
	Latitude               *float64          `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude              *float64          `json:"longitude" validate:"omitempty,min=-180,max=180"`
	MinTempThreshold       Optional[float64] `json:"minTempThreshold"`
	MaxTempThreshold       Optional[float64] `json:"maxTempThreshold"`
	WindSpeedThreshold     Optional[float64] `json:"windSpeedThreshold" validate:"omitempty,min=0"`
	PrecipitationThreshold Optional[float64] `json:"precipitationThreshold" validate:"omitempty,min=0"`
	SevereCodes            Optional[string]  `json:"severeCodes"`
	IsEnabled              *bool             `json:"isEnabled"`
}

// Clean normalizes the scope labels present in the patch.
func (p PreferencePatch) Clean() PreferencePatch {
	p.City = common.CleanLabelPtr(p.City)
	p.Country = common.CleanLabelPtr(p.Country)
	return p
}

// Apply returns pref with every present field of patch copied over and UpdatedAt bumped.
func (patch PreferencePatch) Apply(pref AlertPreference, now time.Time) AlertPreference {
	patch = patch.Clean()
	if patch.City != nil {
		pref.City = *patch.City
	}
	if patch.Country != nil {
		pref.Country = *patch.Country
	}
	if patch.Latitude != nil {
		pref.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		pref.Longitude = *patch.Longitude
	}
	pref.MinTempThreshold = patch.MinTempThreshold.Or(pref.MinTempThreshold)
	pref.MaxTempThreshold = patch.MaxTempThreshold.Or(pref.MaxTempThreshold)
	pref.WindSpeedThreshold = patch.WindSpeedThreshold.Or(pref.WindSpeedThreshold)
	pref.PrecipitationThreshold = patch.PrecipitationThreshold.Or(pref.PrecipitationThreshold)
	pref.SevereCodes = patch.SevereCodes.Or(pref.SevereCodes)
	if patch.IsEnabled != nil {
		pref.IsEnabled = *patch.IsEnabled
	}
	pref.UpdatedAt = now
	return pref
}

// AlertEvent is a materialized rule firing. Events are deactivated, never deleted.
type AlertEvent struct {
	ID          string     `json:"id"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	AlertType   AlertType  `json:"alertType"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DedupKey identifies "the same ongoing condition" for optional deduplication.
func (e AlertEvent) DedupKey() string {
	return e.City + "|" + e.Country + "|" + string(e.AlertType)
}

// Expired reports whether e has an end time strictly before now.
func (e AlertEvent) Expired(now time.Time) bool {
	return e.EndTime != nil && e.EndTime.Before(now)
}

// AlertInput is the body accepted when an alert is added manually.
type AlertInput struct {
	City        string     `json:"city" validate:"required"`
	Country     string     `json:"country" validate:"required"`
	AlertType   AlertType  `json:"alertType" validate:"required,oneof=temperature wind precipitation severe_weather"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Severity    Severity   `json:"severity" validate:"required,oneof=minor moderate warning severe"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	IsActive    *bool      `json:"isActive"`
}

// Event converts the input into an unsaved AlertEvent.
func (in AlertInput) Event(now time.Time) AlertEvent {
	start := now
	if in.StartTime != nil {
		start = *in.StartTime
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return AlertEvent{
		City:        common.CleanLabel(in.City),
		Country:     common.CleanLabel(in.Country),
		AlertType:   in.AlertType,
		Title:       in.Title,
		Description: in.Description,
		Severity:    in.Severity,
		StartTime:   start,
		EndTime:     in.EndTime,
		IsActive:    active,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
