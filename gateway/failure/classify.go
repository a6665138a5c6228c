package failure

import "net/http"

// Class is the failure taxonomy of a single attempt.
type Class int

const (
	ClientError Class = iota + 1
	AuthError
	RateLimited
	ServerError
	NetworkError
)

func (c Class) String() string {
	switch c {
	case ClientError:
		return "client_error"
	case AuthError:
		return "auth_error"
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case NetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether an attempt failing with c may be resubmitted.
func (c Class) Retryable() bool {
	return c == RateLimited || c == ServerError || c == NetworkError
}

// Outcome is the raw result of one attempt. StatusCode is zero when no
// response was received, in which case Err describes the transport failure.
type Outcome struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Received reports whether a response arrived.
func (o Outcome) Received() bool {
	return o.StatusCode != 0
}

// Classify maps a failed outcome to its class. Successful outcomes must not be
// classified.
func Classify(outcome Outcome) Class {
	status := outcome.StatusCode
	switch {
	case !outcome.Received():
		return NetworkError
	case status == http.StatusUnauthorized:
		return AuthError
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status >= http.StatusInternalServerError:
		return ServerError
	default:
		return ClientError
	}
}
