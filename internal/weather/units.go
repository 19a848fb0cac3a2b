package weather

import "math"

const (
	kmPerMile  = 1.609344
	mmPerInch  = 25.4
	fahrOffset = 32.0
)

func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + fahrOffset }

func KmhToMph(kmh float64) float64 { return kmh / kmPerMile }

func MillimetersToInches(mm float64) float64 { return mm / mmPerInch }

// round2 keeps two decimals; inch precipitation would collapse to 0 at integer precision.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// scale renders canonical metric readings in a display unit system.
// Each value is converted from the raw reading and rounded once: temperatures
// and wind speeds to integers, imperial precipitation to two decimals.
type scale struct {
	units  UnitSystem
	temp   func(float64) float64
	wind   func(float64) float64
	precip func(float64) float64
}

func scaleFor(units UnitSystem) scale {
	if units == UnitsImperial {
		return scale{
			units:  UnitsImperial,
			temp:   func(c float64) float64 { return math.Round(CelsiusToFahrenheit(c)) },
			wind:   func(kmh float64) float64 { return math.Round(KmhToMph(kmh)) },
			precip: func(mm float64) float64 { return round2(MillimetersToInches(mm)) },
		}
	}
	return scale{units: UnitsMetric, temp: math.Round, wind: math.Round, precip: math.Round}
}
