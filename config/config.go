// Package config loads the marketgate settings.
//
// Settings come, by increasing precedence, from the defaults, a YAML file,
// the environment (a .env file is loaded first when present) and finally the
// command line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/etnz/marketgate/alpaca"
	"github.com/etnz/marketgate/coingecko"
	"github.com/etnz/marketgate/feargreed"
	"github.com/etnz/marketgate/frankfurter"
	"github.com/etnz/marketgate/gateway"
	"github.com/etnz/marketgate/scheduler"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no file is given explicitly. It may be missing.
const DefaultFile = "mgate.yaml"

type Config struct {
	Log         LogConfig          `yaml:"log"`
	Server      ServerConfig       `yaml:"server"`
	Scheduler   scheduler.Config   `yaml:"scheduler"`
	Aux         scheduler.Config   `yaml:"aux_scheduler"`
	Gateway     gateway.Config     `yaml:"gateway"`
	Markets     gateway.AuxConfig  `yaml:"markets"`
	Cache       CacheConfig        `yaml:"cache"`
	Redis       RedisConfig        `yaml:"redis"`
	Alpaca      alpaca.Config      `yaml:"alpaca"`
	Frankfurter frankfurter.Config `yaml:"frankfurter"`
	CoinGecko   coingecko.Config   `yaml:"coingecko"`
	FearGreed   feargreed.Config   `yaml:"feargreed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type CacheConfig struct {
	// DefaultTTL applies to entries stored without an explicit lifetime.
	DefaultTTL time.Duration `yaml:"default_ttl"`
	// JanitorInterval is the period of the expired entries sweep, zero
	// disables it.
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// RedisConfig enables the shared cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Default returns the reference settings.
func Default() Config {
	sched := scheduler.DefaultConfig()
	sched.Name = "alpaca"

	aux := scheduler.DefaultConfig()
	aux.Name = "aux"
	aux.MaxRequests = 30
	aux.Spacing = 200 * time.Millisecond

	return Config{
		Log:       LogConfig{Level: "info"},
		Server:    ServerConfig{Listen: ":3001"},
		Scheduler: sched,
		Aux:       aux,
		Gateway:   gateway.DefaultConfig(),
		Markets:   gateway.DefaultAuxConfig(),
		Cache: CacheConfig{
			DefaultTTL:      30 * time.Second,
			JanitorInterval: 5 * time.Minute,
		},
		Redis: RedisConfig{Prefix: "mgate:"},
		Alpaca: alpaca.Config{
			BaseURL:  alpaca.DefaultBaseURL,
			Feed:     alpaca.DefaultFeed,
			Timeout:  10 * time.Second,
			MaxPages: 10,
		},
		Frankfurter: frankfurter.Config{BaseURL: frankfurter.DefaultBaseURL, Timeout: 10 * time.Second},
		CoinGecko:   coingecko.Config{BaseURL: coingecko.DefaultBaseURL, Timeout: 10 * time.Second},
		FearGreed:   feargreed.Config{BaseURL: feargreed.DefaultBaseURL, Timeout: 10 * time.Second},
	}
}

// Load returns the settings from file and the environment.
//
// An empty file means DefaultFile, which is optional; an explicit file must
// exist. The .env file of the working directory, if any, is loaded into the
// environment without overriding variables already set.
func Load(file string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("cannot load .env: %w", err)
	}

	optional := file == ""
	if optional {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case optional && errors.Is(err, fs.ErrNotExist):
		log.Debugf("no %s, using defaults", file)
	case err != nil:
		return cfg, fmt.Errorf("cannot read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse config %q: %w", file, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides cfg with the environment variables found by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"ALPACA_API_KEY", &c.Alpaca.KeyID},
		{"ALPACA_SECRET_KEY", &c.Alpaca.SecretKey},
		{"ALPACA_DATA_URL", &c.Alpaca.BaseURL},
		{"ALPACA_FEED", &c.Alpaca.Feed},
		{"COINGECKO_API_KEY", &c.CoinGecko.APIKey},
		{"REDIS_ADDR", &c.Redis.Addr},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"MGATE_LISTEN", &c.Server.Listen},
		{"MGATE_LOG_LEVEL", &c.Log.Level},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok && v != "" {
			*s.dst = v
		}
	}
	// PORT is what most hosting platforms set.
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Listen = ":" + v
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Aux.Validate(); err != nil {
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if c.Cache.DefaultTTL < 0 || c.Cache.JanitorInterval < 0 {
		return errors.New("cache: durations must not be negative")
	}
	if c.Markets.ForexTTL < 0 || c.Markets.CryptoTTL < 0 || c.Markets.SentimentTTL < 0 {
		return errors.New("markets: durations must not be negative")
	}
	return nil
}

// Level returns the parsed log level, info when invalid.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
