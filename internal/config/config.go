// Package config loads process configuration. Values come from the
// environment (with a .env file honored when present, and an optional YAML
// file overlay pointed to by SPRINT_API_CONFIG); the environment always
// wins over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vilaca/sprint-api/internal/apperr"
)

// Config holds application configuration.
type Config struct {
	Port int

	// Jira backend
	JiraBaseURL    string
	JiraPAT        string
	JiraAuthScheme string // bearer|basic
	JiraUsername   string
	JiraBoardID    int

	// Outbound HTTP policy
	HTTPTimeout time.Duration
	MaxRetries  int
	BackoffMin  time.Duration
	BackoffMax  time.Duration

	// Gateway read cache
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheMaxSize int

	LogLevel string
}

// fileConfig mirrors Config for the YAML overlay, with durations expressed
// in seconds the way the env variables are.
type fileConfig struct {
	Port           *int     `yaml:"port"`
	JiraBaseURL    *string  `yaml:"jira_base_url"`
	JiraPAT        *string  `yaml:"jira_pat"`
	JiraAuthScheme *string  `yaml:"jira_auth_scheme"`
	JiraUsername   *string  `yaml:"jira_username"`
	JiraBoardID    *int     `yaml:"jira_board_id"`
	TimeoutSecs    *float64 `yaml:"http_timeout_seconds"`
	MaxRetries     *int     `yaml:"http_max_retries"`
	BackoffMinSecs *float64 `yaml:"http_backoff_min_seconds"`
	BackoffMaxSecs *float64 `yaml:"http_backoff_max_seconds"`
	CacheEnabled   *bool    `yaml:"cache_enabled"`
	CacheTTLSecs   *int     `yaml:"cache_ttl_seconds"`
	CacheMaxSize   *int     `yaml:"cache_maxsize"`
	LogLevel       *string  `yaml:"log_level"`
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           8080,
		JiraAuthScheme: "bearer",
		HTTPTimeout:    20 * time.Second,
		MaxRetries:     4,
		BackoffMin:     500 * time.Millisecond,
		BackoffMax:     6 * time.Second,
		CacheEnabled:   true,
		CacheTTL:       60 * time.Second,
		CacheMaxSize:   256,
		LogLevel:       "info",
	}

	if path := os.Getenv("SPRINT_API_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperr.Config("cannot read config file", map[string]any{"path": path})
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperr.Config("cannot parse config file", map[string]any{"path": path})
	}

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.JiraBaseURL != nil {
		c.JiraBaseURL = *fc.JiraBaseURL
	}
	if fc.JiraPAT != nil {
		c.JiraPAT = *fc.JiraPAT
	}
	if fc.JiraAuthScheme != nil {
		c.JiraAuthScheme = *fc.JiraAuthScheme
	}
	if fc.JiraUsername != nil {
		c.JiraUsername = *fc.JiraUsername
	}
	if fc.JiraBoardID != nil {
		c.JiraBoardID = *fc.JiraBoardID
	}
	if fc.TimeoutSecs != nil {
		c.HTTPTimeout = secondsToDuration(*fc.TimeoutSecs)
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.BackoffMinSecs != nil {
		c.BackoffMin = secondsToDuration(*fc.BackoffMinSecs)
	}
	if fc.BackoffMaxSecs != nil {
		c.BackoffMax = secondsToDuration(*fc.BackoffMaxSecs)
	}
	if fc.CacheEnabled != nil {
		c.CacheEnabled = *fc.CacheEnabled
	}
	if fc.CacheTTLSecs != nil {
		c.CacheTTL = time.Duration(*fc.CacheTTLSecs) * time.Second
	}
	if fc.CacheMaxSize != nil {
		c.CacheMaxSize = *fc.CacheMaxSize
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = intEnv("PORT", c.Port)
	c.JiraBaseURL = strEnv("JIRA_BASE_URL", c.JiraBaseURL)
	c.JiraPAT = strEnv("JIRA_PAT", c.JiraPAT)
	c.JiraAuthScheme = strEnv("JIRA_AUTH_SCHEME", c.JiraAuthScheme)
	c.JiraUsername = strEnv("JIRA_USERNAME", c.JiraUsername)
	c.JiraBoardID = intEnv("JIRA_BOARD_ID", c.JiraBoardID)
	c.HTTPTimeout = secondsEnv("HTTP_TIMEOUT_SECONDS", c.HTTPTimeout)
	c.MaxRetries = intEnv("HTTP_MAX_RETRIES", c.MaxRetries)
	c.BackoffMin = secondsEnv("HTTP_BACKOFF_MIN_SECONDS", c.BackoffMin)
	c.BackoffMax = secondsEnv("HTTP_BACKOFF_MAX_SECONDS", c.BackoffMax)
	c.CacheEnabled = boolEnv("CACHE_ENABLED", c.CacheEnabled)
	c.CacheTTL = secondsEnv("CACHE_TTL_SECONDS", c.CacheTTL)
	c.CacheMaxSize = intEnv("CACHE_MAXSIZE", c.CacheMaxSize)
	c.LogLevel = strEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) validate() error {
	if c.JiraBaseURL == "" {
		return apperr.Config("JIRA_BASE_URL is required", nil)
	}
	if !strings.HasPrefix(c.JiraBaseURL, "http://") && !strings.HasPrefix(c.JiraBaseURL, "https://") {
		return apperr.Config("JIRA_BASE_URL must be an http(s) URL", map[string]any{"value": c.JiraBaseURL})
	}
	if c.JiraPAT == "" {
		return apperr.Config("JIRA_PAT is required", nil)
	}
	if c.JiraBoardID <= 0 {
		return apperr.Config("JIRA_BOARD_ID is required", nil)
	}
	switch strings.ToLower(c.JiraAuthScheme) {
	case "bearer":
	case "basic":
		if c.JiraUsername == "" {
			return apperr.Config("JIRA_USERNAME is required for basic auth", nil)
		}
	default:
		return apperr.Config("Unsupported JIRA_AUTH_SCHEME", map[string]any{"scheme": c.JiraAuthScheme})
	}
	return nil
}

func strEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func secondsEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return secondsToDuration(f)
		}
	}
	return fallback
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
