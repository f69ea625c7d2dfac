// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Currency  CurrencyConfig  `mapstructure:"currency"`
	DB        DBConfig        `mapstructure:"db"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs outbound fetches and extraction passes.
type ScraperConfig struct {
	UserAgent          string  `mapstructure:"user_agent"`
	Referer            string  `mapstructure:"referer"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	SecondaryThreshold int     `mapstructure:"secondary_threshold"`
	PolitenessRPS      float64 `mapstructure:"politeness_rps"`
	PolitenessBurst    int     `mapstructure:"politeness_burst"`
}

// RateLimitConfig sets the inbound sliding-window limiter.
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// CurrencyConfig controls dollar-to-rupee rewriting of compensation strings.
type CurrencyConfig struct {
	USDToINR float64 `mapstructure:"usd_to_inr"`
}

// DBConfig controls the optional search-history database. An empty DSN keeps
// history in memory.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36")
	v.SetDefault("scraper.referer", "https://www.google.com/")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.secondary_threshold", 30)
	v.SetDefault("scraper.politeness_rps", 2)
	v.SetDefault("scraper.politeness_burst", 2)
	v.SetDefault("ratelimit.window_seconds", 10)
	v.SetDefault("ratelimit.max_requests", 5)
	v.SetDefault("currency.usd_to_inr", 83)
	v.SetDefault("db.table", "job_searches")
	v.SetDefault("db.max_conns", 4)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("ratelimit.window_seconds must be > 0")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("ratelimit.max_requests must be > 0")
	}
	if c.Currency.USDToINR <= 0 {
		return fmt.Errorf("currency.usd_to_inr must be > 0")
	}
	return nil
}

// FetchTimeout converts the scraper timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// Window converts the rate-limit window config into a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
