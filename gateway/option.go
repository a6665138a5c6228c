package gateway

import (
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Option configures a Gateway.
type Option func(g *Gateway)

// WithHTTPClient sets the underlying transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithPolicy overrides the retry policy.
func WithPolicy(policy Policy) Option {
	return func(g *Gateway) {
		g.policy = policy
	}
}

// WithSleeper overrides the backoff wait.
func WithSleeper(sleep Sleeper) Option {
	return func(g *Gateway) {
		g.sleep = sleep
	}
}

// WithRateLimiter paces attempts.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(g *Gateway) {
		g.limiter = limiter
	}
}

// WithMetrics records per-attempt metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithUnauthorizedListener subscribes listener to 401 teardown.
func WithUnauthorizedListener(listener Listener) Option {
	return func(g *Gateway) {
		g.listeners = append(g.listeners, listener)
	}
}
