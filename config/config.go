package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cache/redisstore"
	"github.com/jonwraymond/normcache/observe"
	"github.com/jonwraymond/normcache/secret"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the root of a normcache configuration file.
type Config struct {
	Store   StoreConfig    `yaml:"store"`
	Flush   FlushConfig    `yaml:"flush"`
	Health  HealthConfig   `yaml:"health"`
	Observe observe.Config `yaml:"observe"`
	Secrets SecretsConfig  `yaml:"secrets"`
}

// StoreConfig selects and tunes the backend.
type StoreConfig struct {
	Backend    string           `yaml:"backend"`
	Bin        string           `yaml:"bin"`
	Redis      RedisConfig      `yaml:"redis"`
	Policy     PolicyConfig     `yaml:"policy"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

// PolicyConfig maps to cache.Policy.
type PolicyConfig struct {
	PermanentTTL time.Duration `yaml:"permanent_ttl"`
	MaxTTL       time.Duration `yaml:"max_ttl"`
}

// ResilienceConfig guards backend calls. Zero values take the
// resilience package defaults.
type ResilienceConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
	Circuit CircuitConfig `yaml:"circuit"`
}

// RetryConfig tunes write retries.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// CircuitConfig tunes the circuit breaker shared by reads and writes.
type CircuitConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// FlushConfig tunes lifecycle-end writes.
type FlushConfig struct {
	// Concurrency bounds parallel writes; 0 or 1 writes sequentially.
	Concurrency int `yaml:"concurrency"`
}

// HealthConfig tunes health checks.
type HealthConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	DegradedLatency time.Duration `yaml:"degraded_latency"`
	MaxEntries      int           `yaml:"max_entries"`
}

// SecretsConfig configures secret providers by name, e.g. file: {dir: /run/secrets}.
type SecretsConfig struct {
	Strict    bool                      `yaml:"strict"`
	Providers map[string]map[string]any `yaml:"providers"`
}

// Default returns a configuration for an in-memory store with telemetry off.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendMemory,
			Bin:     cache.DefaultBin,
			Redis:   RedisConfig{Prefix: redisstore.DefaultPrefix},
		},
		Observe: observe.Config{ServiceName: "normcache"},
	}
}

// Load reads, parses, resolves and validates the file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(ctx, data)
}

// Parse decodes YAML over Default, resolves secrets and validates.
// Unknown keys are rejected.
func Parse(ctx context.Context, data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.resolveSecrets(ctx); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolveSecrets(ctx context.Context) error {
	resolver, err := secret.NewRegistry().NewResolver(c.Secrets.Strict, c.Secrets.Providers)
	if err != nil {
		return fmt.Errorf("config: secrets: %w", err)
	}
	defer resolver.Close()

	for name, field := range map[string]*string{
		"store.redis.addr":     &c.Store.Redis.Addr,
		"store.redis.password": &c.Store.Redis.Password,
		"store.redis.prefix":   &c.Store.Redis.Prefix,
	} {
		v, err := resolver.ResolveValue(ctx, *field)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*field = v
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, ErrMissingRedisAddr)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend))
	}

	if err := (cache.Lookup{Key: "bin", Bin: c.Store.Bin}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBin, c.Store.Bin))
	}
	if c.Store.Policy.PermanentTTL < 0 || c.Store.Policy.MaxTTL < 0 {
		errs = append(errs, ErrInvalidTTL)
	}
	if c.Flush.Concurrency < 0 {
		errs = append(errs, ErrInvalidConcurrency)
	}

	r := c.Store.Resilience
	if r.Enabled && (r.Timeout < 0 || r.Retry.MaxAttempts < 0 || r.Circuit.MaxFailures < 0) {
		errs = append(errs, ErrInvalidResilience)
	}

	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the cache policy.
func (c *Config) Policy() cache.Policy {
	return cache.Policy{
		PermanentTTL: c.Store.Policy.PermanentTTL,
		MaxTTL:       c.Store.Policy.MaxTTL,
	}
}
