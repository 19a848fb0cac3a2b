package weather

import (
	"fmt"
	"math"
	"time"
)

const (
	// HourlyWindow is the number of hourly slots kept in a snapshot.
	HourlyWindow = 8
	// DailyWindow is the number of forecast days kept in a snapshot.
	DailyWindow = 7
)

const (
	hourlyTimeLayout = "2006-01-02T15:04"
	dailyDateLayout  = "2006-01-02"
)

// Normalize turns a raw provider payload into a WeatherSnapshot for loc.
// The raw payload is always metric; values are converted to units straight from
// the raw readings and rounded once.
func Normalize(raw RawForecast, loc Location, units UnitSystem) (WeatherSnapshot, error) {
	sc := scaleFor(units)
	current, err := normalizeCurrent(raw.Current, sc)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	hourly, err := normalizeHourly(raw.Hourly, sc)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	daily, err := normalizeDaily(raw.Daily, sc)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	snapshot := WeatherSnapshot{
		Location:    loc,
		Units:       sc.units,
		Current:     current,
		Hourly:      hourly,
		Daily:       daily,
		LastUpdated: clock.Now().UTC(),
	}
	return snapshot, nil
}

func normalizeCurrent(c *RawCurrent, sc scale) (CurrentConditions, error) {
	if c == nil {
		return CurrentConditions{}, fmt.Errorf("%w: missing current block", ErrMalformedPayload)
	}
	if c.Temperature == nil {
		return CurrentConditions{}, fmt.Errorf("%w: missing current temperature_2m", ErrMalformedPayload)
	}
	if c.WeatherCode == nil {
		return CurrentConditions{}, fmt.Errorf("%w: missing current weather_code", ErrMalformedPayload)
	}

	feelsLike := *c.Temperature
	if c.ApparentTemperature != nil {
		feelsLike = *c.ApparentTemperature
	}

	return CurrentConditions{
		Temperature:   sc.temp(*c.Temperature),
		FeelsLike:     sc.temp(feelsLike),
		Humidity:      math.Round(valueOrZero(c.RelativeHumidity)),
		WindSpeed:     sc.wind(valueOrZero(c.WindSpeed)),
		Precipitation: sc.precip(valueOrZero(c.Precipitation)),
		WeatherCode:   *c.WeatherCode,
		Description:   Describe(*c.WeatherCode),
	}, nil
}

func normalizeHourly(h *RawHourly, sc scale) ([]HourlyEntry, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: missing hourly block", ErrMalformedPayload)
	}
	if err := requireLen("hourly", HourlyWindow, len(h.Time),
		len(h.Temperature), len(h.WeatherCode), len(h.WindSpeed), len(h.Precipitation)); err != nil {
		return nil, err
	}

	entries := make([]HourlyEntry, 0, HourlyWindow)
	for i := 0; i < HourlyWindow; i++ {
		entries = append(entries, HourlyEntry{
			Time:          hourLabel(h.Time[i]),
			Temperature:   sc.temp(h.Temperature[i]),
			WeatherCode:   h.WeatherCode[i],
			WindSpeed:     sc.wind(h.WindSpeed[i]),
			Precipitation: sc.precip(h.Precipitation[i]),
			Description:   Describe(h.WeatherCode[i]),
		})
	}
	return entries, nil
}

func normalizeDaily(d *RawDaily, sc scale) ([]DailyEntry, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing daily block", ErrMalformedPayload)
	}
	if err := requireLen("daily", DailyWindow, len(d.Time),
		len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin), len(d.PrecipitationSum)); err != nil {
		return nil, err
	}

	entries := make([]DailyEntry, 0, DailyWindow)
	for i := 0; i < DailyWindow; i++ {
		entries = append(entries, DailyEntry{
			Date:          d.Time[i],
			DayName:       dayName(d.Time[i]),
			MaxTemp:       sc.temp(d.TemperatureMax[i]),
			MinTemp:       sc.temp(d.TemperatureMin[i]),
			WeatherCode:   d.WeatherCode[i],
			Precipitation: sc.precip(d.PrecipitationSum[i]),
			Description:   Describe(d.WeatherCode[i]),
		})
	}
	return entries, nil
}

// requireLen checks that the time axis covers the window and that every value
// array is at least as long as the time axis.
func requireLen(block string, window, timeLen int, valueLens ...int) error {
	if timeLen < window {
		return fmt.Errorf("%w: %s has %d entries, need %d", ErrMalformedPayload, block, timeLen, window)
	}
	for _, n := range valueLens {
		if n < timeLen {
			return fmt.Errorf("%w: %s value array shorter than time axis (%d < %d)", ErrMalformedPayload, block, n, timeLen)
		}
	}
	return nil
}

// hourLabel renders "2024-06-01T15:00" as "3 PM". Unparseable input is kept verbatim.
func hourLabel(s string) string {
	t, err := time.Parse(hourlyTimeLayout, s)
	if err != nil {
		return s
	}
	return t.Format("3 PM")
}

// dayName renders "2024-06-01" as "Sat".
func dayName(s string) string {
	t, err := time.Parse(dailyDateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Mon")
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
