// Package marketdata provides a client for the Market Data (marketdata.app) stock candles API.
package marketdata

import "time"

const (
	// DefaultBaseURL is the public Market Data API endpoint.
	DefaultBaseURL = "https://api.marketdata.app"
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Market Data API client.
type Config struct {
	Token   string        `yaml:"token"`    // bearer token for authentication
	BaseURL string        `yaml:"base_url"` // e.g. "https://api.marketdata.app"
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
