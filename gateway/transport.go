package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport returns the send primitive issuing requests against baseURL.
// Each attempt builds a fresh *http.Request; timeouts are those of client.
func Transport(client *http.Client, baseURL string) Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
		var body io.Reader
		if len(request.Body) > 0 {
			body = bytes.NewReader(request.Body)
		}
		httpRequest, err := http.NewRequestWithContext(ctx, request.Method, resolveURL(baseURL, request), body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, values := range request.Header {
			for _, v := range values {
				httpRequest.Header.Add(k, v)
			}
		}
		if httpRequest.Header.Get("Accept") == "" {
			httpRequest.Header.Set("Accept", "application/json")
		}
		httpResponse, err := client.Do(httpRequest)
		if err != nil {
			return nil, err
		}
		defer httpResponse.Body.Close()
		data, err := io.ReadAll(httpResponse.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return &Response{StatusCode: httpResponse.StatusCode, Header: httpResponse.Header, Body: data}, nil
	})
}

func resolveURL(baseURL string, request *Request) string {
	URL := request.Path
	if !strings.HasPrefix(URL, "http://") && !strings.HasPrefix(URL, "https://") {
		URL = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(URL, "/")
	}
	if len(request.Query) > 0 {
		separator := "?"
		if strings.Contains(URL, "?") {
			separator = "&"
		}
		URL += separator + request.Query.Encode()
	}
	return URL
}
