package session

import (
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultLoginRoute is where Expire navigates unless overridden.
const DefaultLoginRoute = "/login"

// Option configures a Controller.
type Option func(c *Controller)

// WithNavigator sets the navigator notified on session expiry.
func WithNavigator(navigator Navigator) Option {
	return func(c *Controller) {
		c.navigator = navigator
	}
}

// WithLoginRoute overrides DefaultLoginRoute.
func WithLoginRoute(route string) Option {
	return func(c *Controller) {
		c.loginRoute = route
	}
}

// WithOAuth2Config sets the refresh-token grant config. By default the token
// endpoint is <base>/auth/token with client credentials sent in the form.
func WithOAuth2Config(config *oauth2.Config) Option {
	return func(c *Controller) {
		c.oauth2Config = config
	}
}

// WithHTTPClient sets the client used for the refresh grant.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}
