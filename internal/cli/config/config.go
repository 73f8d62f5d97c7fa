package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

// EnvAPIURL names the environment variable carrying the API base URL.
const EnvAPIURL = "EXPENZEUS_API_URL"

// Config holds all configuration for the CLI
type Config struct {
	// API Configuration
	API APIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds remote API configuration
type APIConfig struct {
	BaseURL string // Full base URL including path prefix, e.g. https://api.example.com/v1/api
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables.
//
// The API base URL is required and has no built-in fallback. Pointing the CLI
// at a local development server is done the same way as pointing it at
// production: set EXPENZEUS_API_URL explicitly.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	baseURL := os.Getenv(EnvAPIURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%s is not set (e.g. export %s=https://api.expenzeus.app/v1/api)", EnvAPIURL, EnvAPIURL)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%s must be an absolute URL, got %q", EnvAPIURL, baseURL)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			BaseURL: baseURL,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

// Host returns the host portion of the API base URL. It is used as the
// keyring scope so tokens for different deployments don't collide.
func (c *Config) Host() string {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return c.API.BaseURL
	}
	return parsed.Host
}
