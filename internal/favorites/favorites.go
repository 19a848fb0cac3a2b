package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-alerts/internal/common"
)

// ErrNotFound is returned for unknown favorite ids.
var ErrNotFound = errors.New("favorite city not found")

// FavoriteCity is a saved location shown on the dashboard.
type FavoriteCity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	City      *string   `json:"city"`
	Country   *string   `json:"country"`
	AddedAt   time.Time `json:"addedAt"`
}

// Input is the body accepted when saving a favorite.
type Input struct {
	Name      string   `json:"name" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	City      *string  `json:"city"`
	Country   *string  `json:"country"`
}

// New builds a FavoriteCity from validated input.
func New(id string, in Input, now time.Time) FavoriteCity {
	fav := FavoriteCity{
		ID:      id,
		Name:    common.CleanLabel(in.Name),
		City:    common.CleanLabelPtr(in.City),
		Country: common.CleanLabelPtr(in.Country),
		AddedAt: now,
	}
	if in.Latitude != nil {
		fav.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		fav.Longitude = *in.Longitude
	}
	return fav
}

// Repository stores favorites. Lists are ordered newest AddedAt first.
type Repository interface {
	ListFavorites(ctx context.Context) ([]FavoriteCity, error)
	GetFavorite(ctx context.Context, id string) (FavoriteCity, error)
	AddFavorite(ctx context.Context, in Input) (FavoriteCity, error)
	RemoveFavorite(ctx context.Context, id string) error
}
