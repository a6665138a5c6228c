package storegate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"golang.org/x/time/rate"

	"github.com/viant/storegate/auth/session"
	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/auth/store/redis"
	"github.com/viant/storegate/auth/store/sqlite"
	"github.com/viant/storegate/config"
	"github.com/viant/storegate/gateway"
)

// Client bundles the token store, request gateway and session controller
// sharing one store instance.
type Client struct {
	Store   store.Store
	Gateway *gateway.Gateway
	Session *session.Controller
	Logger  zerolog.Logger
	closers []io.Closer
}

type settings struct {
	navigator  session.Navigator
	registerer prometheus.Registerer
	httpClient *http.Client
	logger     *zerolog.Logger
	backend    store.Backend
	sleeper    gateway.Sleeper
}

// Option customises New.
type Option func(s *settings)

// WithNavigator sets where session expiry navigates.
func WithNavigator(navigator session.Navigator) Option {
	return func(s *settings) {
		s.navigator = navigator
	}
}

// WithRegisterer enables gateway metrics on registerer.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = registerer
	}
}

// WithHTTPClient overrides the http client built from options.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// WithLogger overrides the stderr logger built from options.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = &logger
	}
}

// WithBackend overrides the store backend selected by options.
func WithBackend(backend store.Backend) Option {
	return func(s *settings) {
		s.backend = backend
	}
}

// WithSleeper overrides the backoff sleeper.
func WithSleeper(sleeper gateway.Sleeper) Option {
	return func(s *settings) {
		s.sleeper = sleeper
	}
}

// New initialises options, hydrates the token store and wires the gateway's
// unauthorized event to the session controller.
func New(ctx context.Context, options *config.Options, opts ...Option) (*Client, error) {
	if options == nil {
		return nil, errors.New("options were nil")
	}
	options.Init()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	ret := &Client{}
	if s.logger != nil {
		ret.Logger = *s.logger
	} else {
		ret.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(options.Level()).With().Timestamp().Logger()
	}
	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}
	backend := s.backend
	if backend == nil {
		var err error
		if backend, err = ret.openBackend(ctx, &options.Store); err != nil {
			return nil, err
		}
	}
	var storeOptions []store.Option
	if options.Store.EncryptionKey != "" {
		cipher, err := store.NewCipher(options.Store.EncryptionKey)
		if err != nil {
			_ = ret.Close()
			return nil, err
		}
		storeOptions = append(storeOptions, store.WithCipher(cipher))
	}
	ret.Store = store.New(backend, storeOptions...)
	if err := ret.Store.Init(ctx); err != nil {
		_ = ret.Close()
		return nil, err
	}

	gatewayOptions := []gateway.Option{
		gateway.WithHTTPClient(httpClient),
		gateway.WithLogger(ret.Logger),
		gateway.WithPolicy(gateway.Policy{MaxRetries: options.MaxRetries, BaseDelay: options.BaseDelay}),
	}
	if options.RateLimit > 0 {
		gatewayOptions = append(gatewayOptions, gateway.WithRateLimiter(rate.NewLimiter(rate.Limit(options.RateLimit), options.RateBurst)))
	}
	if s.registerer != nil {
		gatewayOptions = append(gatewayOptions, gateway.WithMetrics(gateway.NewMetrics(s.registerer)))
	}
	if s.sleeper != nil {
		gatewayOptions = append(gatewayOptions, gateway.WithSleeper(s.sleeper))
	}
	ret.Gateway = gateway.New(options.BaseURL, ret.Store, gatewayOptions...)

	sessionOptions := []session.Option{
		session.WithHTTPClient(httpClient),
		session.WithLogger(ret.Logger),
	}
	if options.LoginRoute != "" {
		sessionOptions = append(sessionOptions, session.WithLoginRoute(options.LoginRoute))
	}
	if s.navigator != nil {
		sessionOptions = append(sessionOptions, session.WithNavigator(s.navigator))
	}
	ret.Session = session.New(ret.Store, ret.Gateway, sessionOptions...)
	ret.Gateway.OnUnauthorized(ret.Session.Expire)
	return ret, nil
}

func (c *Client) openBackend(ctx context.Context, options *config.Store) (store.Backend, error) {
	switch options.Type {
	case config.StoreMemory:
		return store.NewMemoryBackend(), nil
	case config.StoreFile:
		return store.NewFileBackend(options.URL, afs.New()), nil
	case config.StoreSQLite:
		if dir := filepath.Dir(options.URL); dir != "." && options.URL != ":memory:" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir %v: %w", dir, err)
			}
		}
		backend, err := sqlite.Open(options.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store %v: %w", options.URL, err)
		}
		c.closers = append(c.closers, backend)
		return backend, nil
	case config.StoreRedis:
		backend, err := redis.Dial(ctx, options.RedisAddr, options.RedisPassword, options.RedisDB, options.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis store %v: %w", options.RedisAddr, err)
		}
		c.closers = append(c.closers, backend)
		return backend, nil
	}
	return nil, fmt.Errorf("unsupported store type: %v", options.Type)
}

// Close releases store backend connections.
func (c *Client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
