package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/gateway/failure"
)

// Gateway is the single entry point for REST calls to the remote service.
type Gateway struct {
	baseURL   string
	tokens    store.Store
	client    *http.Client
	policy    Policy
	sleep     Sleeper
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    zerolog.Logger
	mux       sync.RWMutex
	listeners []Listener
	sender    Sender
}

// New creates a gateway sending requests relative to baseURL, e.g.
// https://api.example.com/api/v1.
func New(baseURL string, tokens store.Store, options ...Option) *Gateway {
	ret := &Gateway{
		baseURL: baseURL,
		tokens:  tokens,
		client:  http.DefaultClient,
		policy:  DefaultPolicy(),
		sleep:   Sleep,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(ret)
	}
	retryOptions := []RetryOption{WithRetrySleeper(ret.sleep), WithRetryHook(ret.logRetry)}
	if ret.metrics != nil {
		retryOptions = append(retryOptions, WithRetryHook(ret.metrics.retryHook()))
	}
	ret.sender = Chain(Transport(ret.client, ret.baseURL),
		RequestID(),
		Invalidate(ret.tokens, ret.logger, ret.notify),
		Retry(ret.policy, retryOptions...),
		RateLimit(ret.limiter),
		Instrument(ret.metrics),
		Bearer(ret.tokens),
	)
	return ret
}

// BaseURL returns the versioned base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// OnUnauthorized subscribes listener to 401 teardown events.
func (g *Gateway) OnUnauthorized(listener Listener) {
	g.mux.Lock()
	defer g.mux.Unlock()
	g.listeners = append(g.listeners, listener)
}

// Send issues request and returns the response body. Terminal failures are
// returned as *failure.Error.
func (g *Gateway) Send(ctx context.Context, request *Request) ([]byte, error) {
	if request.Method == "" {
		request = request.clone()
		request.Method = http.MethodGet
	}
	response, err := g.sender.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	return response.Body, nil
}

// Do sends request and decodes a JSON response into target when target is not nil.
func (g *Gateway) Do(ctx context.Context, request *Request, target interface{}) error {
	body, err := g.Send(ctx, request)
	if err != nil {
		return err
	}
	if target == nil || len(body) == 0 {
		return nil
	}
	if err = json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request.
func (g *Gateway) Get(ctx context.Context, path string, target interface{}) error {
	return g.call(ctx, http.MethodGet, path, nil, target)
}

// Post performs a POST request with JSON payload.
func (g *Gateway) Post(ctx context.Context, path string, payload, target interface{}) error {
	return g.call(ctx, http.MethodPost, path, payload, target)
}

// Put performs a PUT request with JSON payload.
func (g *Gateway) Put(ctx context.Context, path string, payload, target interface{}) error {
	return g.call(ctx, http.MethodPut, path, payload, target)
}

// Delete performs a DELETE request.
func (g *Gateway) Delete(ctx context.Context, path string, target interface{}) error {
	return g.call(ctx, http.MethodDelete, path, nil, target)
}

func (g *Gateway) call(ctx context.Context, method, path string, payload, target interface{}) error {
	request, err := NewRequest(method, path, payload)
	if err != nil {
		return err
	}
	return g.Do(ctx, request, target)
}

func (g *Gateway) notify(ctx context.Context, cause *failure.Error) {
	g.mux.RLock()
	listeners := append([]Listener(nil), g.listeners...)
	g.mux.RUnlock()
	for _, listener := range listeners {
		listener(ctx, cause)
	}
}

func (g *Gateway) logRetry(_ context.Context, attempt *Attempt, class failure.Class, delay time.Duration) {
	g.logger.Warn().
		Str("method", attempt.Request.Method).
		Str("path", attempt.Request.Path).
		Str("class", class.String()).
		Int("retry", attempt.RetryCount).
		Dur("delay", delay).
		Msg("retrying request")
}
