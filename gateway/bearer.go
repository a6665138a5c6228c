package gateway

import (
	"context"

	"github.com/viant/storegate/auth/store"
)

const authorizationHeader = "Authorization"

// Bearer attaches the current access token on every attempt. Without a stored
// credential the request proceeds unauthenticated.
func Bearer(tokens store.Store) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			attempt := request.clone()
			attempt.Header.Del(authorizationHeader)
			if credential, ok := tokens.LookupCredential(); ok && credential.AccessToken != "" {
				attempt.Header.Set(authorizationHeader, "Bearer "+credential.AccessToken)
			}
			return next.Send(ctx, attempt)
		})
	}
}
