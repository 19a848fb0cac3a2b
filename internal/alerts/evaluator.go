package alerts

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-alerts/internal/weather"
)

var (
	thunderstormCodes = map[int]struct{}{95: {}, 96: {}, 99: {}}
	heavyPrecipCodes  = map[int]struct{}{65: {}, 67: {}, 75: {}, 77: {}, 82: {}}
)

// Evaluator turns a metric snapshot and one preference into candidate alerts.
// It is stateless apart from the clock used to stamp StartTime.
type Evaluator struct {
	clock clockwork.Clock
}

func NewEvaluator(clock clockwork.Clock) *Evaluator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Evaluator{clock: clock}
}

// Evaluate checks each rule family independently against snapshot.Current and
// returns one event per breached rule, in rule order. Thresholds are compared
// as-is in canonical metric units; disabled preferences yield nothing.
func (e *Evaluator) Evaluate(snapshot weather.WeatherSnapshot, pref AlertPreference) []AlertEvent {
	if !pref.IsEnabled {
		return nil
	}

	cur := snapshot.Current
	now := e.clock.Now().UTC()

	var events []AlertEvent
	emit := func(t AlertType, sev Severity, title, desc string) {
		events = append(events, AlertEvent{
			City:        pref.City,
			Country:     pref.Country,
			AlertType:   t,
			Title:       title,
			Description: desc,
			Severity:    sev,
			StartTime:   now,
			EndTime:     nil,
			IsActive:    true,
		})
	}

	if lo := pref.MinTempThreshold; lo != nil && cur.Temperature < *lo {
		emit(TypeTemperature, SeverityModerate, "Low Temperature Alert",
			fmt.Sprintf("Temperature has dropped to %s°C, below your threshold of %s°C",
				rounded(cur.Temperature), num(*lo)))
	}

	if hi := pref.MaxTempThreshold; hi != nil && cur.Temperature > *hi {
		emit(TypeTemperature, SeverityModerate, "High Temperature Alert",
			fmt.Sprintf("Temperature has risen to %s°C, above your threshold of %s°C",
				rounded(cur.Temperature), num(*hi)))
	}

	if wind := pref.WindSpeedThreshold; wind != nil && cur.WindSpeed > *wind {
		emit(TypeWind, SeverityWarning, "High Wind Speed Alert",
			fmt.Sprintf("Wind speed has reached %s km/h, above your threshold of %s km/h",
				rounded(cur.WindSpeed), num(*wind)))
	}

	if precip := pref.PrecipitationThreshold; precip != nil && cur.Precipitation > *precip {
		emit(TypePrecipitation, SeverityWarning, "Heavy Precipitation Alert",
			fmt.Sprintf("Heavy precipitation detected: %smm, above your threshold of %smm",
				num(cur.Precipitation), num(*precip)))
	}

	if _, ok := pref.SevereCodeSet()[cur.WeatherCode]; ok {
		emit(TypeSevereWeather, SeverityForCode(cur.WeatherCode), "Severe Weather Alert",
			fmt.Sprintf("%s detected in your area. Please take appropriate precautions.",
				weather.Describe(cur.WeatherCode)))
	}

	return events
}

// SeverityForCode escalates severe-weather alerts by condition family.
func SeverityForCode(code int) Severity {
	if _, ok := thunderstormCodes[code]; ok {
		return SeveritySevere
	}
	if _, ok := heavyPrecipCodes[code]; ok {
		return SeverityWarning
	}
	return SeverityModerate
}

func rounded(v float64) string { return num(math.Round(v)) }

// num prints v without trailing zeros ("5", "4.9").
func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
