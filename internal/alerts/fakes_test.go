package alerts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-alerts/internal/weather"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeRepo is a minimal Repository for exercising the alert core in isolation.
type fakeRepo struct {
	mu      sync.Mutex
	prefs   []AlertPreference
	alerts  []AlertEvent
	seq     int
	now     func() time.Time
	failAdd func(AlertEvent) bool
	listErr error
}

func newFakeRepo(now time.Time) *fakeRepo {
	return &fakeRepo{now: func() time.Time { return now }}
}

func (r *fakeRepo) ListPreferences(context.Context) ([]AlertPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AlertPreference(nil), r.prefs...), nil
}

func (r *fakeRepo) ListEnabledPreferences(context.Context) ([]AlertPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []AlertPreference
	for _, p := range r.prefs {
		if p.IsEnabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPreference(_ context.Context, id string) (AlertPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prefs {
		if p.ID == id {
			return p, nil
		}
	}
	return AlertPreference{}, ErrPreferenceNotFound
}

func (r *fakeRepo) AddPreference(_ context.Context, in PreferenceInput) (AlertPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p := NewPreference(fmt.Sprintf("pref-%d", r.seq), in, r.now())
	r.prefs = append(r.prefs, p)
	return p, nil
}

func (r *fakeRepo) UpdatePreference(_ context.Context, id string, patch PreferencePatch) (AlertPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.prefs {
		if p.ID == id {
			r.prefs[i] = patch.Apply(p, r.now())
			return r.prefs[i], nil
		}
	}
	return AlertPreference{}, ErrPreferenceNotFound
}

func (r *fakeRepo) RemovePreference(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.prefs {
		if p.ID == id {
			r.prefs = append(r.prefs[:i], r.prefs[i+1:]...)
			return nil
		}
	}
	return ErrPreferenceNotFound
}

func (r *fakeRepo) AddAlert(_ context.Context, e AlertEvent) (AlertEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd != nil && r.failAdd(e) {
		return AlertEvent{}, errors.New("insert failed")
	}
	r.seq++
	e.ID = fmt.Sprintf("alert-%d", r.seq)
	e.CreatedAt = r.now()
	r.alerts = append(r.alerts, e)
	return e, nil
}

func (r *fakeRepo) ListActiveAlerts(context.Context) ([]AlertEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AlertEvent
	for _, a := range r.alerts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) ListActiveAlertsForLocation(_ context.Context, city, country string) ([]AlertEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AlertEvent
	for _, a := range r.alerts {
		if a.IsActive && a.City == city && a.Country == country {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) DeactivateAlert(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == id {
			r.alerts[i].IsActive = false
		}
	}
	return nil
}

func (r *fakeRepo) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.alerts {
		if r.alerts[i].IsActive && r.alerts[i].Expired(now) {
			r.alerts[i].IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) allAlerts() []AlertEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AlertEvent(nil), r.alerts...)
}

// fakeSource serves canned snapshots keyed by Location.Key.
type fakeSource struct {
	mu        sync.Mutex
	snapshots map[string]weather.WeatherSnapshot
	errs      map[string]error
	calls     []string
}

func (s *fakeSource) Snapshot(_ context.Context, loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, loc.Key())
	if err, ok := s.errs[loc.Key()]; ok {
		return weather.WeatherSnapshot{}, err
	}
	snap, ok := s.snapshots[loc.Key()]
	if !ok {
		return weather.WeatherSnapshot{}, weather.ErrUpstreamUnavailable
	}
	snap.Location = loc
	return snap, nil
}
