package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the archiver
type Config struct {
	// X API settings
	API APIConfig `yaml:"api" json:"api"`

	// Archive behavior
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds X API connection settings
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	BearerToken string        `yaml:"bearer_token" json:"bearer_token"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	PageSize    int           `yaml:"page_size" json:"page_size"`
}

// ArchiveConfig holds inclusion policy for archived posts
type ArchiveConfig struct {
	IncludeReplies  bool `yaml:"include_replies" json:"include_replies"`
	IncludeRetweets bool `yaml:"include_retweets" json:"include_retweets"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRateLimitRetries int           `yaml:"max_rate_limit_retries" json:"max_rate_limit_retries"`
	MaxTransientRetries int           `yaml:"max_transient_retries" json:"max_transient_retries"`
	BaseDelay           time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay            time.Duration `yaml:"max_delay" json:"max_delay"`
	MaxRetryAfter       time.Duration `yaml:"max_retry_after" json:"max_retry_after"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	// MaxPageSize is the X timeline endpoint's max_results ceiling
	MaxPageSize = 100
	// MinPageSize is the X timeline endpoint's max_results floor
	MinPageSize = 5
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "https://api.x.com/2",
			Timeout:  30 * time.Second,
			PageSize: MaxPageSize,
		},
		Archive: ArchiveConfig{
			IncludeReplies:  true,
			IncludeRetweets: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:   60,
			MaxRateLimitRetries: 5,
			MaxTransientRetries: 3,
			BaseDelay:           time.Second,
			MaxDelay:            time.Minute,
			MaxRetryAfter:       5 * time.Minute,
		},
		Output: OutputConfig{
			BaseDirectory: "./archives",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, .env, environment variables,
// an optional YAML file, and command-line flag overrides, in that order.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from XARCHIVE_* environment variables.
// X_BEARER_TOKEN is also honored for compatibility with the common
// convention for X API tooling.
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("XARCHIVE_BEARER_TOKEN"); token != "" {
		c.API.BearerToken = token
	} else if token := os.Getenv("X_BEARER_TOKEN"); token != "" {
		c.API.BearerToken = token
	}
	if baseURL := os.Getenv("XARCHIVE_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if pageSize := os.Getenv("XARCHIVE_PAGE_SIZE"); pageSize != "" {
		val, err := strconv.Atoi(pageSize)
		if err != nil {
			return fmt.Errorf("XARCHIVE_PAGE_SIZE: %w", err)
		}
		c.API.PageSize = val
	}
	if rpm := os.Getenv("XARCHIVE_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("XARCHIVE_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = val
	}
	if outputDir := os.Getenv("XARCHIVE_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if replies := os.Getenv("XARCHIVE_INCLUDE_REPLIES"); replies != "" {
		c.Archive.IncludeReplies = strings.EqualFold(replies, "true")
	}
	if retweets := os.Getenv("XARCHIVE_INCLUDE_RETWEETS"); retweets != "" {
		c.Archive.IncludeRetweets = strings.EqualFold(retweets, "true")
	}
	if logLevel := os.Getenv("XARCHIVE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls back
// to the default locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile looks for a config file in the default locations
func (c *Config) findConfigFile() string {
	candidates := []string{".xarchive.yaml", ".xarchive.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".xarchive.yaml"),
			filepath.Join(home, ".config", "xarchive", "config.yaml"),
		)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// applyFlags applies command-line flag overrides
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "bearer-token":
			if v, ok := value.(string); ok && v != "" {
				c.API.BearerToken = v
			}
		case "page-size":
			if v, ok := value.(int); ok && v > 0 {
				c.API.PageSize = v
			}
		case "include-replies":
			if v, ok := value.(bool); ok {
				c.Archive.IncludeReplies = v
			}
		case "include-retweets":
			if v, ok := value.(bool); ok {
				c.Archive.IncludeRetweets = v
			}
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Output.BaseDirectory = v
			}
		case "requests-per-minute":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.RequestsPerMinute = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks the configuration for invalid values and clamps the page
// size to the API's documented bounds.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.PageSize > MaxPageSize {
		c.API.PageSize = MaxPageSize
	}
	if c.API.PageSize < MinPageSize {
		c.API.PageSize = MinPageSize
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive")
	}
	if c.RateLimit.BaseDelay <= 0 || c.RateLimit.MaxDelay < c.RateLimit.BaseDelay {
		return fmt.Errorf("rate_limit delays must satisfy 0 < base_delay <= max_delay")
	}
	if c.RateLimit.MaxRetryAfter <= 0 {
		return fmt.Errorf("rate_limit.max_retry_after must be positive")
	}
	if c.Output.BaseDirectory == "" {
		return fmt.Errorf("output.base_directory must not be empty")
	}
	return nil
}
