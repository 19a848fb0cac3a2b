package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversions(t *testing.T) {
	assert.InDelta(t, 32.0, CelsiusToFahrenheit(0), 1e-9)
	assert.InDelta(t, 212.0, CelsiusToFahrenheit(100), 1e-9)
	assert.InDelta(t, 62.137, KmhToMph(100), 1e-3)
	assert.InDelta(t, 1.0, MillimetersToInches(25.4), 1e-9)
}

func TestScaleFor(t *testing.T) {
	metric := scaleFor(UnitsMetric)
	assert.Equal(t, UnitsMetric, metric.units)
	assert.Equal(t, 21.0, metric.temp(21.4))
	assert.Equal(t, 13.0, metric.wind(12.5))
	assert.Equal(t, 2.0, metric.precip(1.5))

	imperial := scaleFor(UnitsImperial)
	require.Equal(t, UnitsImperial, imperial.units)
	assert.Equal(t, 71.0, imperial.temp(21.4))
	assert.Equal(t, 10.0, imperial.wind(16))
	assert.Equal(t, 0.47, imperial.precip(12))
}

func TestParseUnits(t *testing.T) {
	assert.Equal(t, UnitsImperial, ParseUnits("imperial"))
	assert.Equal(t, UnitsMetric, ParseUnits("metric"))
	assert.Equal(t, UnitsMetric, ParseUnits(""))
}
