// Package config loads client settings from defaults, an optional YAML file
// and RESILIENT_* environment variables, and turns them into client options.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	resilient "github.com/egorkaBurkenya/resilient-rest"
)

// EnvPrefix is the prefix of environment variables read by Load. A double
// underscore separates nested keys: RESILIENT_RATE__RPS sets rate.rps.
const EnvPrefix = "RESILIENT_"

// Config holds client settings.
type Config struct {
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	AccessToken     string        `koanf:"access_token"`
	TokenHeader     string        `koanf:"token_header" validate:"required"`
	RequestIDHeader string        `koanf:"request_id_header"`
	MaxAttempts     int           `koanf:"max_attempts" validate:"gte=1"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxResponseSize int64         `koanf:"max_response_size" validate:"gte=0"`

	Rate RateConfig `koanf:"rate"`
	Log  LogConfig  `koanf:"log"`
}

// RateConfig configures the token bucket and adaptive reduction.
// RPS zero disables rate limiting.
type RateConfig struct {
	RPS              float64       `koanf:"rps" validate:"gte=0"`
	Burst            int           `koanf:"burst" validate:"gte=1"`
	AdaptiveCooldown time.Duration `koanf:"adaptive_cooldown" validate:"gte=0"`
}

// LogConfig configures the zerolog logger handed to the client.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

// Load reads configuration with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, skipped when path is empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if path == "" {
			return nil
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
}

// LoadBytes is Load with the YAML document given in memory.
func LoadBytes(data []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		return nil
	})
}

func load(source func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := source(k); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey maps RESILIENT_RATE__RPS to rate.rps.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(k, "__", "."), v
}

func defaults() map[string]any {
	return map[string]any{
		"token_header":      resilient.DefaultTokenHeader,
		"request_id_header": resilient.DefaultRequestIDHeader,
		"max_attempts":      resilient.DefaultMaxAttempts,
		"timeout":           "30s",
		"max_response_size": 10 * 1024 * 1024,

		"rate.rps":               0,
		"rate.burst":             1,
		"rate.adaptive_cooldown": "5m",

		"log.level":  "info",
		"log.pretty": false,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

// Options converts cfg into client options. The logger is built by Logger
// and written to w.
func (c *Config) Options(w io.Writer) []resilient.Option {
	opts := []resilient.Option{
		resilient.WithBaseURL(c.BaseURL),
		resilient.WithTokenHeader(c.TokenHeader),
		resilient.WithRequestIDHeader(c.RequestIDHeader),
		resilient.WithMaxAttempts(c.MaxAttempts),
		resilient.WithTimeout(c.Timeout),
		resilient.WithMaxResponseSize(c.MaxResponseSize),
		resilient.WithLogger(c.Log.Logger(w)),
	}
	if c.AccessToken != "" {
		opts = append(opts, resilient.WithAccessToken(c.AccessToken))
	}
	if c.Rate.RPS > 0 {
		opts = append(opts,
			resilient.WithRateLimit(c.Rate.RPS, c.Rate.Burst),
			resilient.WithAdaptive(c.Rate.AdaptiveCooldown),
		)
	}
	return opts
}

// NewClient builds a client from cfg, logging to w.
func (c *Config) NewClient(w io.Writer, extra ...resilient.Option) *resilient.Client {
	return resilient.New(append(c.Options(w), extra...)...)
}

// Logger returns a zerolog logger writing to w at the configured level.
// Unknown levels fall back to info.
func (l LogConfig) Logger(w io.Writer) zerolog.Logger {
	if l.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	zl := zerolog.New(w).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zl.Level(level)
}
