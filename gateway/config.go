package gateway

import (
	"fmt"
	"time"

	"github.com/etnz/marketgate"
)

// Config tunes a Gateway.
type Config struct {
	// BatchSize is the maximum number of symbols per upstream snapshot call.
	BatchSize int `yaml:"batch_size"`
	// SnapshotTTL is how long a snapshot result is served from cache.
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	// BarsTTL is how long a bars result is served from cache.
	BarsTTL time.Duration `yaml:"bars_ttl"`
	// FallbackDelay spaces the per-symbol submissions after a batch failure.
	FallbackDelay time.Duration `yaml:"fallback_delay"`

	// Calendar classifies the market session of extended-hours results.
	Calendar marketgate.Calendar `yaml:"-"`
}

// DefaultConfig returns the settings suited to the Alpaca data API.
func DefaultConfig() Config {
	return Config{
		BatchSize:     50,
		SnapshotTTL:   30 * time.Second,
		BarsTTL:       60 * time.Second,
		FallbackDelay: 300 * time.Millisecond,
		Calendar:      marketgate.NewYork(),
	}
}

// Validate checks that c is usable.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("gateway: batch_size must be positive, got %d", c.BatchSize)
	case c.SnapshotTTL < 0, c.BarsTTL < 0, c.FallbackDelay < 0:
		return fmt.Errorf("gateway: durations must not be negative")
	}
	return nil
}
