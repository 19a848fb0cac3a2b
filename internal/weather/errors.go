package weather

import "errors"

var (
	// ErrMalformedPayload is returned when a provider response lacks required blocks or arrays.
	ErrMalformedPayload = errors.New("malformed provider payload")

	// ErrUpstreamUnavailable covers network failures and non-2xx answers from providers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrLocationNotFound is returned when geocoding yields no results.
	ErrLocationNotFound = errors.New("city not found")
)
