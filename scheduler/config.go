package scheduler

import (
	"fmt"
	"time"
)

// Config tunes a Scheduler to the limits of one upstream provider.
type Config struct {
	// Name identifies the scheduler in logs and metrics.
	Name string `yaml:"name"`
	// Window is the trailing interval over which MaxRequests is enforced.
	Window time.Duration `yaml:"window"`
	// MaxRequests is the dispatch budget per Window. Zero disables the budget.
	MaxRequests int `yaml:"max_requests"`
	// Spacing is the pause after each operation settles, before the next
	// dispatch.
	Spacing time.Duration `yaml:"spacing"`
	// DefaultRetryAfter is how long to back off after a rate-limit response
	// that carried no Retry-After hint.
	DefaultRetryAfter time.Duration `yaml:"default_retry_after"`
	// Timeout bounds each operation. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
	// MaxPending caps the queue. Zero means unbounded.
	MaxPending int `yaml:"max_pending"`
}

// DefaultConfig returns the settings used in front of a provider allowing 200
// requests per minute.
func DefaultConfig() Config {
	return Config{
		Name:              "upstream",
		Window:            60 * time.Second,
		MaxRequests:       180,
		Spacing:           100 * time.Millisecond,
		DefaultRetryAfter: 60 * time.Second,
		Timeout:           10 * time.Second,
	}
}

// Validate checks that c is usable.
func (c Config) Validate() error {
	switch {
	case c.MaxRequests < 0:
		return fmt.Errorf("scheduler %q: max_requests must not be negative, got %d", c.Name, c.MaxRequests)
	case c.MaxRequests > 0 && c.Window <= 0:
		return fmt.Errorf("scheduler %q: window must be positive when max_requests is set", c.Name)
	case c.Spacing < 0, c.DefaultRetryAfter < 0, c.Timeout < 0:
		return fmt.Errorf("scheduler %q: durations must not be negative", c.Name)
	case c.MaxPending < 0:
		return fmt.Errorf("scheduler %q: max_pending must not be negative, got %d", c.Name, c.MaxPending)
	}
	return nil
}
