package weather

// Category is a coarse bucket of WMO weather codes used for icons and alert escalation.
type Category string

const (
	CategoryUnknown      Category = "unknown"
	CategoryClear        Category = "clear"
	CategoryCloud        Category = "cloud"
	CategoryFog          Category = "fog"
	CategoryDrizzle      Category = "drizzle"
	CategoryRain         Category = "rain"
	CategorySnow         Category = "snow"
	CategoryShowers      Category = "showers"
	CategoryThunderstorm Category = "thunderstorm"
)

// UnknownDescription is returned for codes outside the WMO table.
const UnknownDescription = "Unknown weather condition"

var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns the human-readable label for a WMO code. It never returns "".
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return UnknownDescription
}

// CategoryOf buckets a WMO code by closed numeric ranges.
func CategoryOf(code int) Category {
	switch {
	case code == 0 || code == 1:
		return CategoryClear
	case code >= 2 && code <= 3:
		return CategoryCloud
	case code >= 45 && code <= 48:
		return CategoryFog
	case code >= 51 && code <= 57:
		return CategoryDrizzle
	case code >= 61 && code <= 67:
		return CategoryRain
	case code >= 71 && code <= 77:
		return CategorySnow
	case code >= 80 && code <= 86:
		return CategoryShowers
	case code >= 95 && code <= 99:
		return CategoryThunderstorm
	default:
		return CategoryUnknown
	}
}
