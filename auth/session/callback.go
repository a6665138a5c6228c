package session

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrStateMismatch is returned when a callback carries a state the
// controller did not issue.
var ErrStateMismatch = errors.New("oauth state mismatch")

// CallbackParams are the query parameters Shopify redirects with once the
// merchant approves the install.
type CallbackParams struct {
	Shop      string
	Code      string
	State     string
	HMAC      string
	Timestamp string
}

// ParseCallback extracts callback parameters from a redirect URL or a bare query string.
func ParseCallback(rawURL string) (*CallbackParams, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse callback url: %w", err)
	}
	query := parsed.Query()
	if len(query) == 0 {
		if query, err = url.ParseQuery(rawURL); err != nil {
			return nil, fmt.Errorf("failed to parse callback query: %w", err)
		}
	}
	return &CallbackParams{
		Shop:      query.Get("shop"),
		Code:      query.Get("code"),
		State:     query.Get("state"),
		HMAC:      query.Get("hmac"),
		Timestamp: query.Get("timestamp"),
	}, nil
}

// Validate checks that every parameter is present.
func (p *CallbackParams) Validate() error {
	if p == nil {
		return errors.New("callback params were nil")
	}
	for _, field := range []struct{ name, value string }{
		{"shop", p.Shop}, {"code", p.Code}, {"state", p.State}, {"hmac", p.HMAC}, {"timestamp", p.Timestamp},
	} {
		if field.value == "" {
			return fmt.Errorf("callback parameter %v was empty", field.name)
		}
	}
	return nil
}

// Values returns the parameters as a query. The signature covers these exact
// values so they are forwarded unmodified.
func (p *CallbackParams) Values() url.Values {
	ret := url.Values{}
	ret.Set("shop", p.Shop)
	ret.Set("code", p.Code)
	ret.Set("state", p.State)
	ret.Set("hmac", p.HMAC)
	ret.Set("timestamp", p.Timestamp)
	return ret
}
