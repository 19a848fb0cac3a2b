package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-alerts/internal/alerts"
	"github.com/i474232898/weather-alerts/internal/favorites"
)

// record pairs a row with its insertion sequence so that rows created within
// the same clock tick still list newest first.
type record[T any] struct {
	seq uint64
	row T
}

// MemoryStore is a concurrency-safe in-memory implementation of the alert and
// favorites repositories. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	seq   uint64

	prefs     map[string]*record[alerts.AlertPreference]
	alerts    map[string]*record[alerts.AlertEvent]
	favorites map[string]*record[favorites.FavoriteCity]
}

var (
	_ alerts.Repository    = (*MemoryStore)(nil)
	_ favorites.Repository = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store. A nil clock uses wall time.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:     clock,
		prefs:     make(map[string]*record[alerts.AlertPreference]),
		alerts:    make(map[string]*record[alerts.AlertEvent]),
		favorites: make(map[string]*record[favorites.FavoriteCity]),
	}
}

func (s *MemoryStore) now() time.Time { return s.clock.Now().UTC() }

func (s *MemoryStore) next() uint64 {
	s.seq++
	return s.seq
}

// collect returns the rows passing keep, sorted by the time key descending.
func collect[T any](m map[string]*record[T], keep func(T) bool, key func(T) time.Time) []T {
	recs := make([]*record[T], 0, len(m))
	for _, r := range m {
		if keep == nil || keep(r.row) {
			recs = append(recs, r)
		}
	}
	slices.SortFunc(recs, func(a, b *record[T]) int {
		if c := key(b.row).Compare(key(a.row)); c != 0 {
			return c
		}
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.row
	}
	return out
}

func prefCreated(p alerts.AlertPreference) time.Time { return p.CreatedAt }
func alertCreated(a alerts.AlertEvent) time.Time     { return a.CreatedAt }
func alertStarted(a alerts.AlertEvent) time.Time     { return a.StartTime }

// Preferences

func (s *MemoryStore) ListPreferences(context.Context) ([]alerts.AlertPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.prefs, nil, prefCreated), nil
}

func (s *MemoryStore) ListEnabledPreferences(context.Context) ([]alerts.AlertPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.prefs, func(p alerts.AlertPreference) bool { return p.IsEnabled }, prefCreated), nil
}

func (s *MemoryStore) GetPreference(_ context.Context, id string) (alerts.AlertPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.prefs[id]
	if !ok {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	return r.row, nil
}

func (s *MemoryStore) AddPreference(_ context.Context, in alerts.PreferenceInput) (alerts.AlertPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := alerts.NewPreference(uuid.NewString(), in, s.now())
	s.prefs[p.ID] = &record[alerts.AlertPreference]{seq: s.next(), row: p}
	return p, nil
}

func (s *MemoryStore) UpdatePreference(_ context.Context, id string, patch alerts.PreferencePatch) (alerts.AlertPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.prefs[id]
	if !ok {
		return alerts.AlertPreference{}, alerts.ErrPreferenceNotFound
	}
	r.row = patch.Apply(r.row, s.now())
	return r.row, nil
}

func (s *MemoryStore) RemovePreference(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prefs[id]; !ok {
		return alerts.ErrPreferenceNotFound
	}
	delete(s.prefs, id)
	return nil
}

// Alerts

func (s *MemoryStore) AddAlert(_ context.Context, e alerts.AlertEvent) (alerts.AlertEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if e.StartTime.IsZero() {
		e.StartTime = e.CreatedAt
	}
	s.alerts[e.ID] = &record[alerts.AlertEvent]{seq: s.next(), row: e}
	return e, nil
}

func (s *MemoryStore) ListActiveAlerts(context.Context) ([]alerts.AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.alerts, func(a alerts.AlertEvent) bool { return a.IsActive }, alertCreated), nil
}

func (s *MemoryStore) ListActiveAlertsForLocation(_ context.Context, city, country string) ([]alerts.AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.alerts, func(a alerts.AlertEvent) bool {
		return a.IsActive && a.City == city && a.Country == country
	}, alertStarted), nil
}

func (s *MemoryStore) DeactivateAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.alerts[id]; ok {
		r.row.IsActive = false
	}
	return nil
}

func (s *MemoryStore) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.alerts {
		if r.row.IsActive && r.row.Expired(now) {
			r.row.IsActive = false
			n++
		}
	}
	return n, nil
}

// Favorites

func (s *MemoryStore) ListFavorites(context.Context) ([]favorites.FavoriteCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.favorites, nil, func(f favorites.FavoriteCity) time.Time { return f.AddedAt }), nil
}

func (s *MemoryStore) GetFavorite(_ context.Context, id string) (favorites.FavoriteCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.favorites[id]
	if !ok {
		return favorites.FavoriteCity{}, favorites.ErrNotFound
	}
	return r.row, nil
}

func (s *MemoryStore) AddFavorite(_ context.Context, in favorites.Input) (favorites.FavoriteCity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := favorites.New(uuid.NewString(), in, s.now())
	s.favorites[f.ID] = &record[favorites.FavoriteCity]{seq: s.next(), row: f}
	return f, nil
}

func (s *MemoryStore) RemoveFavorite(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; !ok {
		return favorites.ErrNotFound
	}
	delete(s.favorites, id)
	return nil
}
