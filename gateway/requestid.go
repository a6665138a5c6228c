package gateway

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader carries the logical call id, shared by all its retries.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps a request id unless the caller set one.
func RequestID() Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			if request.Header.Get(RequestIDHeader) != "" {
				return next.Send(ctx, request)
			}
			stamped := request.clone()
			stamped.Header.Set(RequestIDHeader, uuid.NewString())
			return next.Send(ctx, stamped)
		})
	}
}
