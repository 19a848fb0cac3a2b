package weather

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// fallbackCity labels snapshots whose coordinates could not be reverse geocoded.
const fallbackCity = "Current Location"

// Service orchestrates geocoding, forecast fetching and normalization.
type Service struct {
	fetcher  Fetcher
	resolver Resolver
	logger   logrus.FieldLogger
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, resolver Resolver, logger logrus.FieldLogger) *Service {
	return &Service{
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger,
	}
}

// SearchCity geocodes city and returns its snapshot in the requested units.
func (s *Service) SearchCity(ctx context.Context, city string, units UnitSystem) (WeatherSnapshot, error) {
	loc, err := s.resolver.Search(ctx, city)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	return s.fetch(ctx, loc, units)
}

// ByCoordinates names the place at coords (best effort) and returns its snapshot.
func (s *Service) ByCoordinates(ctx context.Context, coords Coordinates, units UnitSystem) (WeatherSnapshot, error) {
	loc, err := s.resolver.Reverse(ctx, coords)
	if err != nil || loc.City == "" {
		if err != nil {
			s.logger.WithError(err).WithField("latitude", coords.Latitude).
				WithField("longitude", coords.Longitude).Warn("reverse geocoding failed")
		}
		loc = Location{City: fallbackCity}
	}
	loc.Coordinates = coords
	return s.fetch(ctx, loc, units)
}

// Snapshot fetches a fresh metric snapshot for an already resolved location.
// This is the path alert evaluation uses.
func (s *Service) Snapshot(ctx context.Context, loc Location) (WeatherSnapshot, error) {
	return s.fetch(ctx, loc, UnitsMetric)
}

func (s *Service) fetch(ctx context.Context, loc Location, units UnitSystem) (WeatherSnapshot, error) {
	if !loc.Coordinates.Valid() {
		return WeatherSnapshot{}, fmt.Errorf("coordinates out of range: %+v", loc.Coordinates)
	}

	raw, err := s.fetcher.FetchForecast(ctx, loc.Coordinates)
	if err != nil {
		s.logger.WithError(err).WithField("provider", s.fetcher.Name()).
			WithField("location", loc.Key()).Error("forecast fetch failed")
		return WeatherSnapshot{}, err
	}

	snapshot, err := Normalize(raw, loc, units)
	if err != nil {
		return WeatherSnapshot{}, fmt.Errorf("normalize %s: %w", loc.Key(), err)
	}
	return snapshot, nil
}
