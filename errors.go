package marketgate

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when a provider cannot even build a request,
// typically because its credentials are missing.
var ErrNotConfigured = errors.New("market data provider not configured")

// APIError is a non successful response from a provider.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cannot http GET %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("cannot http GET %s: %s: %s", e.URL, e.Status, e.Body)
}

// RateLimitError is the provider telling us to slow down (HTTP 429).
//
// RetryAfter is the provider's hint, zero when it gave none.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is, or wraps, a RateLimitError.
func IsRateLimited(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
