package marketgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// contains http utils to deal with remote services

// maxErrorBody caps how much of an error response is kept in an APIError.
const maxErrorBody = 512

// GetJSON performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data.
//
// A 429 response is returned as a *RateLimitError carrying the Retry-After
// hint, any other non 2xx response as an *APIError.
func GetJSON(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	body, err := Get(ctx, client, addr, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("cannot decode response from %s: %w", redact(addr), err)
	}
	return nil
}

// Get is GetJSON without the decoding: it returns the raw body.
func Get(ctx context.Context, client *http.Client, addr string, header http.Header) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %q: %w", redact(addr), err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot execute http request: %w", err)
	}
	defer resp.Body.Close()

	// reading in a buffer to be able to report the payload in errors
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("cannot read receiving http body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        resp.Request.URL.Host + resp.Request.URL.Path,
			Body:       truncate(strings.TrimSpace(buf.String()), maxErrorBody),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{
				RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
				Err:        apiErr,
			}
		}
		return nil, apiErr
	}
	return buf.Bytes(), nil
}

// MaxRetryAfter caps the back-off a provider can ask for.
const MaxRetryAfter = time.Hour

// ParseRetryAfter decodes a Retry-After header value, either a number of
// seconds or an HTTP date. It returns zero when there is no usable hint and
// never more than MaxRetryAfter.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		switch {
		case math.IsNaN(secs) || secs <= 0:
			return 0
		case secs >= MaxRetryAfter.Seconds():
			return MaxRetryAfter
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return min(d, MaxRetryAfter)
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// redact removes the query string, that may carry api tokens.
func redact(addr string) string {
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		return addr[:i]
	}
	return addr
}
