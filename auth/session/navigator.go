package session

import "context"

// Navigator moves the host application to a route, typically the login screen.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}
