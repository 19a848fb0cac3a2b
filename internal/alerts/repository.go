package alerts

import (
	"context"
	"errors"
	"time"
)

// ErrPreferenceNotFound is returned for unknown preference ids.
var ErrPreferenceNotFound = errors.New("alert preference not found")

// PreferenceRepository stores alert preferences. Lists are ordered newest CreatedAt first.
type PreferenceRepository interface {
	ListPreferences(ctx context.Context) ([]AlertPreference, error)
	ListEnabledPreferences(ctx context.Context) ([]AlertPreference, error)
	GetPreference(ctx context.Context, id string) (AlertPreference, error)
	AddPreference(ctx context.Context, in PreferenceInput) (AlertPreference, error)
	UpdatePreference(ctx context.Context, id string, patch PreferencePatch) (AlertPreference, error)
	RemovePreference(ctx context.Context, id string) error
}

// AlertRepository stores alert events. Rows are never deleted.
type AlertRepository interface {
	// AddAlert persists e as a new row, assigning ID and CreatedAt.
	AddAlert(ctx context.Context, e AlertEvent) (AlertEvent, error)
	// ListActiveAlerts returns active rows, newest CreatedAt first.
	ListActiveAlerts(ctx context.Context) ([]AlertEvent, error)
	// ListActiveAlertsForLocation returns active rows for city/country, newest StartTime first.
	ListActiveAlertsForLocation(ctx context.Context, city, country string) ([]AlertEvent, error)
	// DeactivateAlert clears IsActive. Unknown ids are not an error.
	DeactivateAlert(ctx context.Context, id string) error
	// DeactivateExpired clears IsActive on active rows whose EndTime is before now.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

// Repository is everything the alert core persists.
type Repository interface {
	PreferenceRepository
	AlertRepository
}
