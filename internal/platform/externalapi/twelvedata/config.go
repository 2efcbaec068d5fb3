// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

const (
	// DefaultBaseURL is the public Twelve Data API endpoint.
	DefaultBaseURL = "https://api.twelvedata.com"
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Twelve Data API client.
type Config struct {
	APIKey  string        `yaml:"api_key"`  // API key for authentication
	BaseURL string        `yaml:"base_url"` // Base URL for the API (e.g., "https://api.twelvedata.com")
	Timeout time.Duration `yaml:"timeout"`  // HTTP request timeout
}

// WithDefaults fills unset fields with their default values.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
