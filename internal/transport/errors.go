package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrCircuitOpen is returned when the breaker for a host rejects a request.
var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d, body: %s", e.URL, e.StatusCode, e.Body)
}

// ClientError reports a 4xx status other than 429.
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) && se.ClientError() {
		return false
	}
	return true
}

// errorType is the metrics label for a failed request.
func errorType(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se) && se.StatusCode >= 500:
		return "status_5xx"
	case errors.As(err, &se):
		return "status_4xx"
	default:
		return "network"
	}
}
