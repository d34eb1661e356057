package remote

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingBaseURL is returned when the service base URL is not set.
	ErrMissingBaseURL = errors.New("base URL is required")

	// ErrMissingGridID is returned when the grid identifier is not set.
	ErrMissingGridID = errors.New("grid ID is required")
)

// Config holds configuration for the remote adapter.
type Config struct {
	// BaseURL is the service root, e.g. "https://grid.example.com".
	BaseURL string `yaml:"base_url"`
	// APIVersion is the versioned path segment (default "v1").
	APIVersion string `yaml:"api_version"`
	// GridID selects the grid resource.
	GridID string `yaml:"grid_id"`
	// PageSize is the fetch window (default 100). The row-identity cache
	// is keyed in pages of this size.
	PageSize int `yaml:"page_size"`
	// MaxRetries bounds request retries on transient failures (default 3).
	MaxRetries int `yaml:"max_retries"`
	// RetryInterval is the base backoff between retries (default 1s).
	RetryInterval time.Duration `yaml:"retry_interval"`
	// PollInterval is the delay between job status polls (default 500ms).
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxPollAttempts bounds job polling (default 60); exceeding it fails
	// the operation with a timeout instead of polling forever.
	MaxPollAttempts int `yaml:"max_poll_attempts"`
	// RequestsPerSecond throttles outgoing calls; 0 disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.GridID == "" {
		return ErrMissingGridID
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.APIVersion == "" {
		out.APIVersion = "v1"
	}
	if out.PageSize <= 0 {
		out.PageSize = 100
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.RetryInterval <= 0 {
		out.RetryInterval = time.Second
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 500 * time.Millisecond
	}
	if out.MaxPollAttempts <= 0 {
		out.MaxPollAttempts = 60
	}
	return out
}

// UnmarshalYAML decodes the config, accepting human-readable durations
// ("250ms", "1s") for the interval fields.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		BaseURL           string  `yaml:"base_url"`
		APIVersion        string  `yaml:"api_version"`
		GridID            string  `yaml:"grid_id"`
		PageSize          int     `yaml:"page_size"`
		MaxRetries        int     `yaml:"max_retries"`
		RetryInterval     string  `yaml:"retry_interval"`
		PollInterval      string  `yaml:"poll_interval"`
		MaxPollAttempts   int     `yaml:"max_poll_attempts"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.BaseURL = raw.BaseURL
	c.APIVersion = raw.APIVersion
	c.GridID = raw.GridID
	c.PageSize = raw.PageSize
	c.MaxRetries = raw.MaxRetries
	c.MaxPollAttempts = raw.MaxPollAttempts
	c.RequestsPerSecond = raw.RequestsPerSecond
	for _, f := range []struct {
		name string
		text string
		dst  *time.Duration
	}{
		{"retry_interval", raw.RetryInterval, &c.RetryInterval},
		{"poll_interval", raw.PollInterval, &c.PollInterval},
	} {
		if f.text == "" {
			continue
		}
		d, err := time.ParseDuration(f.text)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
