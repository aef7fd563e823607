package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"tidbyt.dev/transit/clock"
)

const (
	DefaultBackend   = "filesystem"
	DefaultDirectory = "racuni"
	DefaultCriterion = "time"
	DefaultStart     = "08:00"
)

// ReceiptsConfig selects where receipts are kept
type ReceiptsConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=filesystem memory sqlite postgres"`
	Directory string `yaml:"directory" validate:"required_if=Backend filesystem"`
	Postgres  string `yaml:"postgres" validate:"required_if=Backend postgres"`
}

// SearchConfig holds defaults for route searches
type SearchConfig struct {
	Criterion string `yaml:"criterion" validate:"oneof=time price transfers"`
	Start     string `yaml:"start" validate:"hhmm"`
}

// DownloadConfig applies to networks fetched over HTTP. CacheTTL is
// nil when unset; an explicit zero turns the cache off.
type DownloadConfig struct {
	Timeout  time.Duration  `yaml:"timeout"`
	MaxSize  int            `yaml:"maxSize" validate:"gte=0"`
	CacheTTL *time.Duration `yaml:"cacheTTL"`
}

// Configured cache TTL, or def when the key was not set.
func (d DownloadConfig) CacheTTLOr(def time.Duration) time.Duration {
	if d.CacheTTL == nil {
		return def
	}
	return *d.CacheTTL
}

// Config is the root configuration structure
type Config struct {
	Network  string            `yaml:"network"`
	Headers  map[string]string `yaml:"headers"`
	Receipts ReceiptsConfig    `yaml:"receipts"`
	Search   SearchConfig      `yaml:"search"`
	Download DownloadConfig    `yaml:"download"`
}

func Default() *Config {
	return &Config{
		Receipts: ReceiptsConfig{
			Backend:   DefaultBackend,
			Directory: DefaultDirectory,
		},
		Search: SearchConfig{
			Criterion: DefaultCriterion,
			Start:     DefaultStart,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New()
	err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := clock.Parse(fl.Field().String())
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("registering validation: %w", err)
	}

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Download.Timeout < 0 || c.Download.CacheTTLOr(0) < 0 {
		return fmt.Errorf("invalid config: negative download timeout or cache TTL")
	}

	return nil
}

// Start time of searches in minutes past midnight.
func (c *Config) StartMinutes() (int, error) {
	return clock.Parse(c.Search.Start)
}
