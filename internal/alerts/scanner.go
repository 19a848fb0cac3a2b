package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-alerts/internal/observability"
	"github.com/i474232898/weather-alerts/internal/weather"
)

// SnapshotSource fetches a fresh metric snapshot for a location.
type SnapshotSource interface {
	Snapshot(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error)
}

// LocationResult is the outcome of one preference's fetch/evaluate/record cycle.
type LocationResult struct {
	PreferenceID    string       `json:"preferenceId"`
	City            string       `json:"city"`
	Country         string       `json:"country"`
	Location        string       `json:"location"`
	AlertsGenerated int          `json:"alertsGenerated"`
	Alerts          []AlertEvent `json:"alerts"`
	Error           string       `json:"error,omitempty"`
}

// ScanReport summarizes one batch scan.
type ScanReport struct {
	LocationsScanned     int              `json:"locationsScanned"`
	TotalAlertsGenerated int              `json:"totalAlertsGenerated"`
	PerLocation          []LocationResult `json:"perLocation"`
}

// ScannerConfig tunes the batch scan.
type ScannerConfig struct {
	// Concurrency bounds parallel preference cycles; <= 1 runs them sequentially.
	Concurrency int
	// FetchTimeout bounds each snapshot fetch; 0 disables the per-fetch deadline.
	FetchTimeout time.Duration
}

// Scanner evaluates enabled preferences against fresh weather and records the results.
type Scanner struct {
	prefs     PreferenceRepository
	source    SnapshotSource
	evaluator *Evaluator
	manager   *Manager
	clock     clockwork.Clock
	logger    logrus.FieldLogger
	metrics   *observability.Metrics
	cfg       ScannerConfig
}

func NewScanner(
	prefs PreferenceRepository,
	source SnapshotSource,
	evaluator *Evaluator,
	manager *Manager,
	clock clockwork.Clock,
	logger logrus.FieldLogger,
	metrics *observability.Metrics,
	cfg ScannerConfig,
) *Scanner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scanner{
		prefs:     prefs,
		source:    source,
		evaluator: evaluator,
		manager:   manager,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// ScanAll runs one cycle per enabled preference, then expires stale alerts.
// A failing location contributes zero alerts and never aborts the scan; only a
// failure to load the preferences themselves is returned.
func (s *Scanner) ScanAll(ctx context.Context) (ScanReport, error) {
	start := s.clock.Now()

	prefs, err := s.prefs.ListEnabledPreferences(ctx)
	if err != nil {
		return ScanReport{}, fmt.Errorf("list enabled preferences: %w", err)
	}

	results := make([]LocationResult, len(prefs))
	if s.cfg.Concurrency <= 1 {
		for i, p := range prefs {
			results[i] = s.scanOne(ctx, p)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for i, p := range prefs {
			g.Go(func() error {
				results[i] = s.scanOne(gctx, p)
				return nil
			})
		}
		_ = g.Wait() // cycles never return errors
	}

	report := ScanReport{
		LocationsScanned: len(prefs),
		PerLocation:      results,
	}
	for _, r := range results {
		report.TotalAlertsGenerated += r.AlertsGenerated
	}

	if _, err := s.manager.ExpireStale(ctx, s.clock.Now().UTC()); err != nil {
		s.logger.WithError(err).Error("scan: cleanup of expired alerts failed")
	}

	s.metrics.ScansTotal.Inc()
	s.metrics.ScanDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.WithFields(logrus.Fields{
		"locations": report.LocationsScanned,
		"alerts":    report.TotalAlertsGenerated,
	}).Info("scan: completed")

	return report, nil
}

func (s *Scanner) scanOne(ctx context.Context, p AlertPreference) LocationResult {
	result := LocationResult{
		PreferenceID: p.ID,
		City:         p.City,
		Country:      p.Country,
		Location:     fmt.Sprintf("%s, %s", p.City, p.Country),
		Alerts:       []AlertEvent{},
	}
	log := s.logger.WithFields(logrus.Fields{
		"preference_id": p.ID,
		"city":          p.City,
		"country":       p.Country,
	})

	snapshot, err := s.fetch(ctx, p.Location())
	if err != nil {
		s.metrics.LocationFailures.Inc()
		log.WithError(err).Warn("scan: fetch failed; location skipped")
		result.Error = err.Error()
		return result
	}

	stored, err := s.manager.RecordAlerts(ctx, s.evaluator.Evaluate(snapshot, p))
	if err != nil {
		log.WithError(err).Error("scan: recording alerts failed")
		result.Error = err.Error()
	}
	if len(stored) > 0 {
		result.Alerts = stored
	}
	result.AlertsGenerated = len(stored)
	return result
}

func (s *Scanner) fetch(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	return s.source.Snapshot(ctx, loc)
}

// CheckLocation fetches weather for loc once and evaluates every enabled preference
// scoped to loc's exact city/country. Unlike ScanAll, a fetch failure is returned.
func (s *Scanner) CheckLocation(ctx context.Context, loc weather.Location) ([]AlertEvent, error) {
	snapshot, err := s.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefs.ListEnabledPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled preferences: %w", err)
	}

	var candidates []AlertEvent
	for _, p := range prefs {
		if !p.Matches(loc.City, loc.Country) {
			continue
		}
		candidates = append(candidates, s.evaluator.Evaluate(snapshot, p)...)
	}

	stored, err := s.manager.RecordAlerts(ctx, candidates)
	if stored == nil {
		stored = []AlertEvent{}
	}
	return stored, err
}
