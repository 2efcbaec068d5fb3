// Package config loads application configuration from a YAML file, a .env file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stock_trend/internal/platform/db"
	"stock_trend/internal/platform/externalapi/marketdata"
	"stock_trend/internal/platform/externalapi/twelvedata"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Supported price providers.
const (
	ProviderMarketData = "marketdata"
	ProviderTwelveData = "twelvedata"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Database db.Config `yaml:"database"`
	Redis    struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Provider   string            `yaml:"provider"` // marketdata | twelvedata
	MarketData marketdata.Config `yaml:"marketdata"`
	TwelveData twelvedata.Config `yaml:"twelvedata"`
	Preload    struct {
		SymbolsFile string   `yaml:"symbols_file"`
		Symbols     []string `yaml:"symbols"`
		Cron        string   `yaml:"cron"`
		OnStart     bool     `yaml:"on_start"`
		Concurrency int      `yaml:"concurrency"`
		RateLimit   struct {
			Calls    int           `yaml:"calls"`
			Interval time.Duration `yaml:"interval"`
		} `yaml:"rate_limit"`
	} `yaml:"preload"`
	Cache struct {
		TTL         time.Duration `yaml:"ttl"`
		Namespace   string        `yaml:"namespace"`
		RefreshHour int           `yaml:"refresh_hour"` // -1 disables the daily cap
		Timezone    string        `yaml:"timezone"`
	} `yaml:"cache"`
	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads .env into the process environment if present.
// Variables that are already set are not overwritten.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Cache.RefreshHour = -1

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("PORT"); v != "" && os.Getenv("SERVER_ADDR") == "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	c.Database = c.Database.Override(db.LoadConfigFromEnv())

	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		c.Redis.Addr = host + ":" + port
	}
	str(&c.Redis.Password, "REDIS_PASSWORD")

	str(&c.Provider, "PRICE_PROVIDER")
	str(&c.MarketData.Token, "MARKETDATA_TOKEN")
	str(&c.MarketData.BaseURL, "MARKETDATA_BASE_URL")
	str(&c.TwelveData.APIKey, "TWELVE_DATA_API_KEY")
	str(&c.TwelveData.BaseURL, "TWELVE_DATA_BASE_URL")

	str(&c.Preload.SymbolsFile, "PRELOAD_SYMBOLS_FILE")
	if v := os.Getenv("PRELOAD_SYMBOLS"); v != "" {
		c.Preload.Symbols = splitList(v)
	}
	str(&c.Preload.Cron, "PRELOAD_CRON")
	if v := os.Getenv("PRELOAD_ON_START"); v != "" {
		c.Preload.OnStart = v == "true"
	}
	num(&c.Preload.Concurrency, "PRELOAD_CONCURRENCY")

	str(&c.Logging.Level, "LOG_LEVEL")
	str(&c.Logging.Format, "LOG_FORMAT")
	str(&c.Logging.File, "LOG_FILE")

	str(&c.Auth.JWTSecret, "JWT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverSQLite
	}
	if c.Database.Driver == db.DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "data/stock_trend.db"
	}
	if c.Provider == "" {
		c.Provider = ProviderMarketData
	}
	c.MarketData = c.MarketData.WithDefaults()
	c.TwelveData = c.TwelveData.WithDefaults()
	if c.Preload.Concurrency <= 0 {
		c.Preload.Concurrency = 1
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "trend"
	}
	if c.Cache.Timezone == "" {
		c.Cache.Timezone = "UTC"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMarketData:
		if c.MarketData.Token == "" {
			return fmt.Errorf("marketdata.token is required")
		}
	case ProviderTwelveData:
		if c.TwelveData.APIKey == "" {
			return fmt.Errorf("twelvedata.api_key is required")
		}
	default:
		return fmt.Errorf("provider must be %q or %q, got %q", ProviderMarketData, ProviderTwelveData, c.Provider)
	}
	switch c.Database.Driver {
	case db.DriverMySQL, db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Cache.RefreshHour < -1 || c.Cache.RefreshHour > 23 {
		return fmt.Errorf("cache.refresh_hour must be between 0 and 23, or -1")
	}
	if _, err := time.LoadLocation(c.Cache.Timezone); err != nil {
		return fmt.Errorf("cache.timezone: %w", err)
	}
	return nil
}

// Location returns the configured cache timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Cache.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
