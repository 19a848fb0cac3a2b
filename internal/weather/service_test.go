package weather

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	raw   RawForecast
	err   error
	calls []Coordinates
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) FetchForecast(_ context.Context, coords Coordinates) (RawForecast, error) {
	f.calls = append(f.calls, coords)
	return f.raw, f.err
}

type stubResolver struct {
	search     Location
	searchErr  error
	reverse    Location
	reverseErr error
}

func (r *stubResolver) Search(context.Context, string) (Location, error) {
	return r.search, r.searchErr
}

func (r *stubResolver) Reverse(context.Context, Coordinates) (Location, error) {
	return r.reverse, r.reverseErr
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestService_SearchCity(t *testing.T) {
	fetcher := &stubFetcher{raw: rawForecast(24, 7)}
	svc := NewService(fetcher, &stubResolver{search: berlin}, quietLogger())

	snap, err := svc.SearchCity(context.Background(), "Berlin", UnitsImperial)
	require.NoError(t, err)

	assert.Equal(t, berlin, snap.Location)
	assert.Equal(t, UnitsImperial, snap.Units)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, berlin.Coordinates, fetcher.calls[0])
}

func TestService_SearchCity_NotFound(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewService(fetcher, &stubResolver{searchErr: ErrLocationNotFound}, quietLogger())

	_, err := svc.SearchCity(context.Background(), "Atlantis", UnitsMetric)
	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.Empty(t, fetcher.calls)
}

func TestService_ByCoordinates_FallsBackWhenReverseFails(t *testing.T) {
	fetcher := &stubFetcher{raw: rawForecast(8, 7)}
	svc := NewService(fetcher, &stubResolver{reverseErr: ErrUpstreamUnavailable}, quietLogger())

	coords := Coordinates{Latitude: 10, Longitude: 20}
	snap, err := svc.ByCoordinates(context.Background(), coords, UnitsMetric)
	require.NoError(t, err)

	assert.Equal(t, "Current Location", snap.Location.City)
	assert.Equal(t, "", snap.Location.Country)
	assert.Equal(t, coords, snap.Location.Coordinates)
}

func TestService_Snapshot_PropagatesErrors(t *testing.T) {
	svc := NewService(&stubFetcher{err: ErrUpstreamUnavailable}, &stubResolver{}, quietLogger())
	_, err := svc.Snapshot(context.Background(), berlin)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	svc = NewService(&stubFetcher{raw: RawForecast{}}, &stubResolver{}, quietLogger())
	_, err = svc.Snapshot(context.Background(), berlin)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestService_Snapshot_RejectsOutOfRangeCoordinates(t *testing.T) {
	fetcher := &stubFetcher{raw: rawForecast(8, 7)}
	svc := NewService(fetcher, &stubResolver{}, quietLogger())

	_, err := svc.Snapshot(context.Background(), Location{City: "X", Coordinates: Coordinates{Latitude: 91}})
	assert.Error(t, err)
	assert.Empty(t, fetcher.calls)
}
