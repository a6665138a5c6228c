package gateway

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/gateway/failure"
)

// Listener is notified after a 401 cleared the token store.
type Listener func(ctx context.Context, cause *failure.Error)

// Invalidate clears the token store when the call ends with an AuthError and
// notifies listener with that same error, unless the request suppresses
// unauthorized notifications. It sits outside Retry, so cause.Attempts counts
// every attempt of the call.
func Invalidate(tokens store.Store, logger zerolog.Logger, listener Listener) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			response, err := next.Send(ctx, request)
			var cause *failure.Error
			if err == nil || !errors.As(err, &cause) || cause.Class != failure.AuthError {
				return response, err
			}
			if clearErr := tokens.Clear(ctx); clearErr != nil {
				logger.Error().Err(clearErr).Str("path", request.Path).Msg("failed to clear token store")
			}
			logger.Info().Str("method", request.Method).Str("path", request.Path).Int("attempts", cause.Attempts).Msg("session invalidated")
			if listener != nil && !request.SuppressUnauthorized {
				listener(ctx, cause)
			}
			return response, err
		})
	}
}
