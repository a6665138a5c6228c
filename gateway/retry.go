package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/viant/storegate/gateway/failure"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Policy bounds the retry sequence of one logical call.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy returns 3 retries waiting 1s, 2s and 4s.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Delay returns BaseDelay * 2^(retryCount-1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<uint(retryCount-1))
}

// Attempt tracks one logical call across its retries.
type Attempt struct {
	RetryCount int
	Request    *Request
}

// Count returns the number of attempts issued so far, including the current one.
func (a *Attempt) Count() int {
	return a.RetryCount + 1
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper. A done ctx aborts the wait with ctx.Err(),
// ending the retry sequence without another attempt.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryHook observes every scheduled retry.
type RetryHook func(ctx context.Context, attempt *Attempt, class failure.Class, delay time.Duration)

type retryOptions struct {
	sleep   Sleeper
	onRetry []RetryHook
}

// RetryOption configures Retry.
type RetryOption func(*retryOptions)

// WithRetrySleeper replaces the backoff wait, mostly to simulate time in tests.
func WithRetrySleeper(sleep Sleeper) RetryOption {
	return func(o *retryOptions) {
		o.sleep = sleep
	}
}

// WithRetryHook registers a hook called before each backoff wait.
func WithRetryHook(hook RetryHook) RetryOption {
	return func(o *retryOptions) {
		o.onRetry = append(o.onRetry, hook)
	}
}

// Retry classifies failed attempts and resubmits retryable ones while
// RetryCount < MaxRetries. Attempts are strictly sequential. ClientError and
// AuthError are terminal on first sight.
func Retry(policy Policy, options ...RetryOption) Middleware {
	opts := &retryOptions{sleep: Sleep}
	for _, opt := range options {
		opt(opts)
	}
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			attempt := &Attempt{Request: request}
			for {
				response, err := next.Send(ctx, attempt.Request)
				if err == nil && response.StatusCode < http.StatusBadRequest {
					response.Attempts = attempt.Count()
					return response, nil
				}
				outcome := outcomeOf(response, err)
				class := failure.Classify(outcome)
				if response != nil {
					response.Attempts = attempt.Count()
				}
				if !class.Retryable() || attempt.RetryCount >= policy.MaxRetries || ctx.Err() != nil {
					return response, failure.New(outcome, attempt.Count())
				}
				attempt.RetryCount++
				delay := policy.Delay(attempt.RetryCount)
				for _, hook := range opts.onRetry {
					hook(ctx, attempt, class, delay)
				}
				if err = opts.sleep(ctx, delay); err != nil {
					return nil, fmt.Errorf("backoff interrupted after %d attempts: %w", attempt.RetryCount, err)
				}
			}
		})
	}
}

func outcomeOf(response *Response, err error) failure.Outcome {
	if err != nil || response == nil {
		return failure.Outcome{Err: err}
	}
	return failure.Outcome{StatusCode: response.StatusCode, Body: response.Body}
}
