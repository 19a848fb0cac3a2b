package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-alerts/internal/observability"
)

// Manager persists alert events and drives their active/inactive lifecycle.
type Manager struct {
	repo    AlertRepository
	clock   clockwork.Clock
	logger  logrus.FieldLogger
	metrics *observability.Metrics
	dedup   bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDedup makes RecordAlerts skip events whose DedupKey matches an active alert.
// Without it every recorded event becomes a new row.
func WithDedup() ManagerOption {
	return func(m *Manager) { m.dedup = true }
}

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

func NewManager(repo AlertRepository, logger logrus.FieldLogger, metrics *observability.Metrics, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordAlerts stores each event as a new row and returns the stored copies.
// A failed insert does not stop the remaining events; failures are joined into the error.
func (m *Manager) RecordAlerts(ctx context.Context, events []AlertEvent) ([]AlertEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var active map[string]struct{}
	if m.dedup {
		var err error
		if active, err = m.activeKeys(ctx); err != nil {
			return nil, err
		}
	}

	stored := make([]AlertEvent, 0, len(events))
	var errs []error
	for _, e := range events {
		if active != nil {
			if _, dup := active[e.DedupKey()]; dup {
				m.metrics.AlertsSuppressed.Inc()
				m.logger.WithField("key", e.DedupKey()).Debug("alert suppressed by dedup")
				continue
			}
		}

		saved, err := m.repo.AddAlert(ctx, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s alert for %s, %s: %w", e.AlertType, e.City, e.Country, err))
			continue
		}
		if active != nil && saved.IsActive {
			active[saved.DedupKey()] = struct{}{}
		}
		m.metrics.AlertsGenerated.WithLabelValues(string(saved.AlertType)).Inc()
		stored = append(stored, saved)
	}

	return stored, errors.Join(errs...)
}

func (m *Manager) activeKeys(ctx context.Context) (map[string]struct{}, error) {
	current, err := m.repo.ListActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	keys := make(map[string]struct{}, len(current))
	for _, a := range current {
		keys[a.DedupKey()] = struct{}{}
	}
	return keys, nil
}

// ListActive returns all active alerts, most recently created first.
func (m *Manager) ListActive(ctx context.Context) ([]AlertEvent, error) {
	return m.repo.ListActiveAlerts(ctx)
}

// ListActiveForLocation returns active alerts for an exact city/country, newest start first.
func (m *Manager) ListActiveForLocation(ctx context.Context, city, country string) ([]AlertEvent, error) {
	return m.repo.ListActiveAlertsForLocation(ctx, city, country)
}

// Deactivate marks an alert inactive. Unknown or already inactive ids are fine.
func (m *Manager) Deactivate(ctx context.Context, id string) error {
	if err := m.repo.DeactivateAlert(ctx, id); err != nil {
		return fmt.Errorf("deactivate alert %s: %w", id, err)
	}
	return nil
}

// ExpireStale deactivates active alerts whose end time is before now.
// Open-ended alerts (nil EndTime) are left alone.
func (m *Manager) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	n, err := m.repo.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale alerts: %w", err)
	}
	if n > 0 {
		m.metrics.AlertsExpired.Add(float64(n))
		m.logger.WithField("count", n).Info("expired stale alerts")
	}
	return n, nil
}

// Add stores a manually submitted alert as-is. Dedup does not apply.
func (m *Manager) Add(ctx context.Context, in AlertInput) (AlertEvent, error) {
	saved, err := m.repo.AddAlert(ctx, in.Event(m.clock.Now().UTC()))
	if err != nil {
		return AlertEvent{}, fmt.Errorf("add %s alert for %s, %s: %w", in.AlertType, in.City, in.Country, err)
	}
	m.metrics.AlertsGenerated.WithLabelValues(string(saved.AlertType)).Inc()
	return saved, nil
}
