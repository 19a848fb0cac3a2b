package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-alerts/internal/observability"
	"github.com/i474232898/weather-alerts/internal/weather"
)

type scanFixture struct {
	repo    *fakeRepo
	source  *fakeSource
	metrics *observability.Metrics
	scanner *Scanner
}

func newScanFixture(cfg ScannerConfig, opts ...ManagerOption) *scanFixture {
	clock := clockwork.NewFakeClockAt(evalNow)
	repo := newFakeRepo(evalNow)
	source := &fakeSource{
		snapshots: map[string]weather.WeatherSnapshot{},
		errs:      map[string]error{},
	}
	metrics := observability.NewMetricsForTesting()
	opts = append(opts, WithClock(clock))
	manager := NewManager(repo, quietLogger(), metrics, opts...)
	scanner := NewScanner(repo, source, NewEvaluator(clock), manager, clock, quietLogger(), metrics, cfg)
	return &scanFixture{repo: repo, source: source, metrics: metrics, scanner: scanner}
}

func (f *scanFixture) addPref(city string, enabled bool, edit func(*AlertPreference)) AlertPreference {
	p := AlertPreference{
		ID:        city + "-pref",
		City:      city,
		Country:   "Germany",
		IsEnabled: enabled,
	}
	if edit != nil {
		edit(&p)
	}
	f.repo.prefs = append(f.repo.prefs, p)
	return p
}

func (f *scanFixture) setWeather(city string, cur weather.CurrentConditions) {
	f.source.snapshots[city+":Germany"] = weather.WeatherSnapshot{Units: weather.UnitsMetric, Current: cur}
}

func TestScanner_ScanAll_IsolatesFailures(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		f := newScanFixture(ScannerConfig{Concurrency: concurrency})
		f.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
		f.addPref("Munich", true, func(p *AlertPreference) { p.WindSpeedThreshold = f64(10) })
		f.addPref("Hamburg", true, func(p *AlertPreference) { p.MaxTempThreshold = f64(20) })
		f.addPref("Dresden", false, func(p *AlertPreference) { p.MinTempThreshold = f64(50) })

		f.setWeather("Berlin", weather.CurrentConditions{Temperature: -5})
		f.source.errs["Munich:Germany"] = weather.ErrMalformedPayload
		f.setWeather("Hamburg", weather.CurrentConditions{Temperature: 25, WeatherCode: 95})
		f.setWeather("Dresden", weather.CurrentConditions{Temperature: -20})

		report, err := f.scanner.ScanAll(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 3, report.LocationsScanned)
		assert.Equal(t, 3, report.TotalAlertsGenerated)
		require.Len(t, report.PerLocation, 3)

		assert.Equal(t, "Berlin, Germany", report.PerLocation[0].Location)
		assert.Equal(t, 1, report.PerLocation[0].AlertsGenerated)

		assert.Equal(t, "Munich", report.PerLocation[1].City)
		assert.Zero(t, report.PerLocation[1].AlertsGenerated)
		assert.NotEmpty(t, report.PerLocation[1].Error)
		assert.Empty(t, report.PerLocation[1].Alerts)

		assert.Equal(t, 2, report.PerLocation[2].AlertsGenerated)
		assert.Equal(t, TypeTemperature, report.PerLocation[2].Alerts[0].AlertType)
		assert.Equal(t, TypeSevereWeather, report.PerLocation[2].Alerts[1].AlertType)

		assert.Len(t, f.repo.allAlerts(), 3, "concurrency %d", concurrency)
		assert.NotContains(t, f.source.calls, "Dresden:Germany")
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LocationFailures))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ScansTotal))
	}
}

func TestScanner_ScanAll_NoPreferences(t *testing.T) {
	f := newScanFixture(ScannerConfig{})

	report, err := f.scanner.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.LocationsScanned)
	assert.Zero(t, report.TotalAlertsGenerated)
	assert.Empty(t, report.PerLocation)
}

func TestScanner_ScanAll_PreferenceListFailure(t *testing.T) {
	f := newScanFixture(ScannerConfig{})
	f.repo.listErr = errors.New("db down")

	_, err := f.scanner.ScanAll(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestScanner_ScanAll_ExpiresStaleAlerts(t *testing.T) {
	f := newScanFixture(ScannerConfig{})
	past := evalNow.Add(-time.Minute)
	stale := candidate("Berlin", TypeWind)
	stale.EndTime = &past
	_, err := f.repo.AddAlert(context.Background(), stale)
	require.NoError(t, err)

	_, err = f.scanner.ScanAll(context.Background())
	require.NoError(t, err)

	active, err := f.repo.ListActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestScanner_ScanAll_RepeatedScansDuplicateWithoutDedup(t *testing.T) {
	f := newScanFixture(ScannerConfig{})
	f.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	f.setWeather("Berlin", weather.CurrentConditions{Temperature: -5})

	for range 2 {
		_, err := f.scanner.ScanAll(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, f.repo.allAlerts(), 2)

	d := newScanFixture(ScannerConfig{}, WithDedup())
	d.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	d.setWeather("Berlin", weather.CurrentConditions{Temperature: -5})
	for range 2 {
		_, err := d.scanner.ScanAll(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, d.repo.allAlerts(), 1)
}

func TestScanner_CheckLocation(t *testing.T) {
	f := newScanFixture(ScannerConfig{})
	f.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	f.addPref("Berlin", true, func(p *AlertPreference) {
		p.ID = "berlin-wind"
		p.WindSpeedThreshold = f64(30)
	})
	f.addPref("Berlin", false, func(p *AlertPreference) {
		p.ID = "berlin-off"
		p.MaxTempThreshold = f64(-50)
	})
	f.addPref("Hamburg", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	f.setWeather("Berlin", weather.CurrentConditions{Temperature: -2, WindSpeed: 45})

	loc := weather.Location{City: "Berlin", Country: "Germany"}
	stored, err := f.scanner.CheckLocation(context.Background(), loc)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, TypeTemperature, stored[0].AlertType)
	assert.Equal(t, TypeWind, stored[1].AlertType)
	assert.Equal(t, []string{"Berlin:Germany"}, f.source.calls)
}

func TestScanner_CheckLocation_NoMatchingPreference(t *testing.T) {
	f := newScanFixture(ScannerConfig{})
	f.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	f.setWeather("Berlin", weather.CurrentConditions{Temperature: -2})

	// Case-sensitive exact match.
	stored, err := f.scanner.CheckLocation(context.Background(), weather.Location{City: "berlin", Country: "Germany"})
	require.Error(t, err, "no snapshot is configured for the lowercase key")
	assert.Nil(t, stored)

	f.source.snapshots["berlin:Germany"] = f.source.snapshots["Berlin:Germany"]
	stored, err = f.scanner.CheckLocation(context.Background(), weather.Location{City: "berlin", Country: "Germany"})
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.NotNil(t, stored)
}

func TestScanner_CheckLocation_FetchFailure(t *testing.T) {
	f := newScanFixture(ScannerConfig{FetchTimeout: time.Second})
	f.addPref("Berlin", true, func(p *AlertPreference) { p.MinTempThreshold = f64(0) })
	f.source.errs["Berlin:Germany"] = weather.ErrUpstreamUnavailable

	_, err := f.scanner.CheckLocation(context.Background(), weather.Location{City: "Berlin", Country: "Germany"})
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.Empty(t, f.repo.allAlerts())
}
