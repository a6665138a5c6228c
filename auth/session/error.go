package session

import (
	"errors"
	"fmt"
)

// ErrAuthExchange matches every AuthExchangeError.
var ErrAuthExchange = errors.New("auth exchange rejected")

// AuthExchangeError reports a rejected login exchange.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAuthExchange, e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

func (e *AuthExchangeError) Is(target error) bool {
	return target == ErrAuthExchange
}
