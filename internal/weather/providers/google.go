package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-alerts/internal/common"
	"github.com/i474232898/weather-alerts/internal/weather"
)

var apiKeyOnce sync.Once

// GoogleGeocoder implements weather.Resolver with the Google Geocoding API.
// The underlying client keeps its key in a package variable, so only the first
// key configured in a process takes effect.
type GoogleGeocoder struct{}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	apiKeyOnce.Do(func() {
		geocoder.ApiKey = apiKey
	})
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Search(ctx context.Context, city string) (weather.Location, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := geocoder.Geocoding(geocoder.Address{City: city})
		ch <- result{loc, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return weather.Location{}, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		return weather.Location{}, classifyGoogleError(r.err)
	}

	coords := weather.Coordinates{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}
	out := weather.Location{City: city, Coordinates: coords}

	// Country only comes back from the reverse call; a failure there keeps the bare city.
	if named, err := g.Reverse(ctx, coords); err == nil {
		if named.City != "" {
			out.City = named.City
		}
		out.Country = named.Country
	}
	return out, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, coords weather.Coordinates) (weather.Location, error) {
	type result struct {
		addrs []geocoder.Address
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		addrs, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		})
		ch <- result{addrs, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return weather.Location{}, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		return weather.Location{}, classifyGoogleError(r.err)
	}
	if len(r.addrs) == 0 {
		return weather.Location{}, weather.ErrLocationNotFound
	}

	return weather.Location{
		City:        r.addrs[0].City,
		Country:     r.addrs[0].Country,
		Coordinates: coords,
	}, nil
}

func classifyGoogleError(err error) error {
	if common.HasAny(err.Error(), "ZERO_RESULTS", "no results", "No results") {
		return weather.ErrLocationNotFound
	}
	return fmt.Errorf("%w: google geocoding: %v", weather.ErrUpstreamUnavailable, err)
}
