package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimit paces attempts with limiter. A nil limiter disables pacing.
func RateLimit(limiter *rate.Limiter) Middleware {
	if limiter == nil {
		return nil
	}
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return next.Send(ctx, request)
		})
	}
}
