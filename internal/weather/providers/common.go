package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-alerts/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by the provider constructors.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

const (
	// maxBodyBytes bounds how much of a provider response is read.
	maxBodyBytes = 4 << 20
	// breakerTripAfter is the number of consecutive failed lookups that opens the circuit.
	breakerTripAfter = 5
)

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// resilientClient performs GETs with retries, exponential backoff and a circuit breaker.
// The breaker counts whole lookups, retries included, so one bad location costs
// one failure. Client errors and caller cancellation do not count against it.
// Every failure it returns wraps weather.ErrUpstreamUnavailable.
type resilientClient struct {
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func newResilientClient(name string, client *http.Client, backoff BackoffConfig) *resilientClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &resilientClient{
		client:  client,
		backoff: backoff,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
			IsSuccessful: upstreamHealthy,
		}),
	}
}

// get returns the body of a 2xx response to url.
func (c *resilientClient) get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.do(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// upstreamHealthy reports whether err says nothing about the provider's health.
func upstreamHealthy(err error) bool {
	return err == nil || errors.Is(err, errUnexpected) || errors.Is(err, context.Canceled)
}

func (c *resilientClient) do(ctx context.Context, url string) ([]byte, error) {
	if c.backoff.MaxRetries < 0 || c.backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.retry(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *resilientClient) retry(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.once(ctx, url)
		if err == nil {
			return body, nil
		}
		// Client errors other than 429 will not improve on retry.
		if errors.Is(err, errUnexpected) || attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *resilientClient) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
