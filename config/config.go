// Package config loads the process configuration once at startup from the
// environment, an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

var (
	// ErrMissingAPIKey is returned when NOTION_API_KEY is not set.
	ErrMissingAPIKey = errors.New("NOTION_API_KEY not found in environment or .env file")
	// ErrMissingParent is returned by commands that create content when
	// NOTION_PARENT_PAGE_ID is not set.
	ErrMissingParent = errors.New("NOTION_PARENT_PAGE_ID not found in environment or .env file")
	// ErrUnknownDatabase is returned for a database name absent from the config file.
	ErrUnknownDatabase = errors.New("database not configured")
)

// Config is the process configuration.
type Config struct {
	APIKey       string `yaml:"-"`
	ParentPageID string `yaml:"parent_page_id"`
	Debug        bool   `yaml:"debug"`
	LogLevel     string `yaml:"log_level"`

	RateLimit  float64 `yaml:"rate_limit"`
	RateBurst  int     `yaml:"rate_burst"`
	MaxRetries int     `yaml:"max_retries"`
	ExportDir  string  `yaml:"export_dir"`

	// Databases maps names such as "content_hub" to database IDs.
	Databases map[string]string `yaml:"databases"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		RateLimit:  notion.DefaultRateLimit,
		RateBurst:  int(notion.DefaultRateLimit),
		MaxRetries: notion.DefaultMaxRetries,
		ExportDir:  ".",
		Databases:  map[string]string{},
	}
}

// Load reads .env (if present), then the YAML file at path or
// $CONTENTOS_CONFIG (if set), then the environment, and validates the result.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c := Default()
	if path == "" {
		path = os.Getenv("CONTENTOS_CONFIG")
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.Databases == nil {
		c.Databases = map[string]string{}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("NOTION_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("NOTION_PARENT_PAGE_ID"); v != "" {
		c.ParentPageID = v
	}
	if isTrue(getenv("DEBUG")) || isTrue(getenv("NOTION_DEBUG")) {
		c.Debug = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("NOTION_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("NOTION_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := getenv("NOTION_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NOTION_MAX_RETRIES: %w", err)
		}
		c.MaxRetries = n
	}
	if v := getenv("CONTENTOS_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
	return nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ParentPageID != "" {
		if _, err := notion.ValidateID(c.ParentPageID); err != nil {
			return fmt.Errorf("NOTION_PARENT_PAGE_ID: %w", err)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// RequireParent fails with ErrMissingParent when no parent page is configured.
func (c *Config) RequireParent() error {
	if c.ParentPageID == "" {
		return ErrMissingParent
	}
	return nil
}

// Database returns the ID of a named database from the config file.
func (c *Config) Database(name string) (string, error) {
	id, ok := c.Databases[name]
	if !ok || id == "" {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownDatabase)
	}
	return id, nil
}

// Level returns the configured log level; Debug forces slog.LevelDebug.
func (c *Config) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// NewClient returns a Notion client configured from c. opts are applied
// after the configured ones.
func (c *Config) NewClient(logger *slog.Logger, opts ...notion.Option) (*notion.Client, error) {
	burst := c.RateBurst
	if burst <= 0 {
		burst = max(int(c.RateLimit), 1)
	}
	return notion.NewClient(c.APIKey, append([]notion.Option{
		notion.WithRateLimit(c.RateLimit, burst),
		notion.WithMaxRetries(c.MaxRetries),
		notion.WithDefaultParent(c.ParentPageID),
		notion.WithLogger(logger),
	}, opts...)...)
}
