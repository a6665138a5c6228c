package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one logical outbound call. Body holds the encoded payload
// so every retry resubmits identical bytes.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// SuppressUnauthorized keeps a 401 from notifying unauthorized listeners;
	// the token store is still cleared.
	SuppressUnauthorized bool
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Attempts counts transport attempts made for the logical call.
	Attempts int
}

// NewRequest creates a request, JSON-encoding payload when it is not nil.
func NewRequest(method, path string, payload interface{}) (*Request, error) {
	ret := &Request{Method: method, Path: path, Header: http.Header{}}
	if payload == nil {
		return ret, nil
	}
	switch actual := payload.(type) {
	case []byte:
		ret.Body = actual
	case json.RawMessage:
		ret.Body = actual
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		ret.Body = data
	}
	ret.Header.Set("Content-Type", "application/json")
	return ret, nil
}

// WithQuery sets query parameters and returns the request.
func (r *Request) WithQuery(query url.Values) *Request {
	r.Query = query
	return r
}

func (r *Request) clone() *Request {
	ret := *r
	if r.Header != nil {
		ret.Header = r.Header.Clone()
	} else {
		ret.Header = http.Header{}
	}
	if r.Query != nil {
		ret.Query = url.Values{}
		for k, v := range r.Query {
			ret.Query[k] = append([]string(nil), v...)
		}
	}
	return &ret
}
