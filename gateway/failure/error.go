package failure

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// DefaultMessage is used when neither the body nor the transport explain a failure.
const DefaultMessage = "An error occurred"

// Sentinels matched by Error.Is, one per class.
var (
	ErrClient      = errors.New("client error")
	ErrAuth        = errors.New("authentication error")
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
	ErrNetwork     = errors.New("network error")
)

var sentinels = map[Class]error{
	ClientError:  ErrClient,
	AuthError:    ErrAuth,
	RateLimited:  ErrRateLimited,
	ServerError:  ErrServer,
	NetworkError: ErrNetwork,
}

// Error is a terminal gateway failure.
type Error struct {
	Class      Class
	StatusCode int
	Message    string
	Body       []byte
	Attempts   int
	Cause      error
}

// New classifies outcome and builds its terminal error.
func New(outcome Outcome, attempts int) *Error {
	return &Error{
		Class:      Classify(outcome),
		StatusCode: outcome.StatusCode,
		Message:    Message(outcome),
		Body:       outcome.Body,
		Attempts:   attempts,
		Cause:      outcome.Err,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the class sentinel.
func (e *Error) Is(target error) bool {
	return sentinels[e.Class] == target
}

// Message derives the user-facing text: JSON detail, then message, then the
// transport message, then DefaultMessage.
func Message(outcome Outcome) string {
	if len(outcome.Body) > 0 && gjson.ValidBytes(outcome.Body) {
		for _, field := range []string{"detail", "message"} {
			if value := gjson.GetBytes(outcome.Body, field); value.Type == gjson.String && value.String() != "" {
				return value.String()
			}
		}
	}
	if outcome.Err != nil {
		if msg := outcome.Err.Error(); msg != "" {
			return msg
		}
	}
	if outcome.Received() {
		return fmt.Sprintf("request failed with status code %d", outcome.StatusCode)
	}
	return DefaultMessage
}

// UserMessage renders any error for the UI layer.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var failure *Error
	if errors.As(err, &failure) && failure.Message != "" {
		return failure.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultMessage
}
