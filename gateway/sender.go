package gateway

import "context"

// Sender sends one attempt of a request.
type Sender interface {
	Send(ctx context.Context, request *Request) (*Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, request *Request) (*Response, error)

func (f SenderFunc) Send(ctx context.Context, request *Request) (*Response, error) {
	return f(ctx, request)
}

// Middleware decorates a Sender.
type Middleware func(next Sender) Sender

// Chain wraps sender with middlewares; the first middleware is the outermost.
// Nil middlewares are skipped.
func Chain(sender Sender, middlewares ...Middleware) Sender {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		sender = middlewares[i](sender)
	}
	return sender
}
