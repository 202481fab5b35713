// Package config defines the top-level configuration for fusionscan and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FUSIONSCAN_* environment
// variables.
type Config struct {
	OneInch  OneInchConfig  `toml:"oneinch"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// OneInchConfig holds the Fusion+ API endpoint and credential.
type OneInchConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
	// RateLimit and RateWindow throttle upstream calls via the distributed
	// limiter; RateLimit <= 0 disables throttling.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// ScannerConfig holds the batch and scoring parameters. The defaults are the
// reference values the test suite reproduces.
type ScannerConfig struct {
	PageSize    int      `toml:"page_size"`
	EvalLimit   int      `toml:"eval_limit"`
	Concurrency int      `toml:"concurrency"`
	EvalTimeout duration `toml:"eval_timeout"`
	MaxResults  int      `toml:"max_results"`

	ProfitWeight      float64 `toml:"profit_weight"`
	ProfitCap         float64 `toml:"profit_cap"`
	MaturityThreshold float64 `toml:"maturity_threshold"`
	MaturityWeight    float64 `toml:"maturity_weight"`
	GasBonus          float64 `toml:"gas_bonus"`
	GasPenalty        float64 `toml:"gas_penalty"`
	MajorChainBonus   float64 `toml:"major_chain_bonus"`
	FillNowThreshold  float64 `toml:"fill_now_threshold"`
	MonitorThreshold  float64 `toml:"monitor_threshold"`
	MajorChains       []int64 `toml:"major_chains"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for report archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit caps API requests per client IP per RateWindow; 0 disables.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// MonitorConfig holds the periodic scan loop parameters. ResolverAddress is
// the wallet scans run on behalf of in scan/monitor/full modes.
type MonitorConfig struct {
	Interval           duration `toml:"interval"`
	ResolverAddress    string   `toml:"resolver_address"`
	TargetChains       []int64  `toml:"target_chains"`
	MaxGasPrice        string   `toml:"max_gas_price"` // decimal string, empty = no ceiling
	MinProfitThreshold float64  `toml:"min_profit_threshold"`
	// ArchiveRetentionDays is how long reports stay in postgres before the
	// archiver exports them to S3; 0 disables archival.
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveInterval      duration `toml:"archive_interval"`
	// ReportCacheTTL bounds how long the latest report stays readable from
	// the cache-first API endpoint.
	ReportCacheTTL duration `toml:"report_cache_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the reference values.
func Defaults() Config {
	return Config{
		OneInch: OneInchConfig{
			BaseURL:    "https://api.1inch.dev/fusion-plus",
			Timeout:    duration{30 * time.Second},
			RateLimit:  10,
			RateWindow: duration{time.Second},
		},
		Scanner: ScannerConfig{
			PageSize:          500,
			EvalLimit:         50,
			Concurrency:       8,
			EvalTimeout:       duration{10 * time.Second},
			MaxResults:        10,
			ProfitWeight:      10,
			ProfitCap:         40,
			MaturityThreshold: 0.5,
			MaturityWeight:    60,
			GasBonus:          20,
			GasPenalty:        10,
			MajorChainBonus:   10,
			FillNowThreshold:  60,
			MonitorThreshold:  30,
			MajorChains:       []int64{1, 10, 56, 137, 8453, 42161, 43114},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "fusionscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "fusionscan-reports",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"scan_completed", "fill_now", "error"},
		},
		Monitor: MonitorConfig{
			Interval:             duration{5 * time.Minute},
			ArchiveRetentionDays: 90,
			ArchiveInterval:      duration{24 * time.Hour},
			ReportCacheTTL:       duration{10 * time.Minute},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"monitor": true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, monitor, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// 1inch
	if c.OneInch.BaseURL == "" {
		errs = append(errs, "oneinch: base_url must not be empty")
	}
	if c.OneInch.APIKey == "" {
		errs = append(errs, "oneinch: api_key must be set")
	}

	// Scanner
	if c.Scanner.PageSize < 1 {
		errs = append(errs, "scanner: page_size must be >= 1")
	}
	if c.Scanner.EvalLimit < 1 {
		errs = append(errs, "scanner: eval_limit must be >= 1")
	}
	if c.Scanner.Concurrency < 1 {
		errs = append(errs, "scanner: concurrency must be >= 1")
	}
	if c.Scanner.MaxResults < 1 {
		errs = append(errs, "scanner: max_results must be >= 1")
	}
	if c.Scanner.MonitorThreshold >= c.Scanner.FillNowThreshold {
		errs = append(errs, "scanner: monitor_threshold must be below fill_now_threshold")
	}
	for _, chain := range c.Scanner.MajorChains {
		if chain <= 0 {
			errs = append(errs, fmt.Sprintf("scanner: major chain ids must be positive, got %d", chain))
		}
	}

	// Monitor — a resolver address is required for modes that run scans
	// without a per-request address.
	needsResolver := c.Mode == "scan" || c.Mode == "monitor" || c.Mode == "full"
	if needsResolver && c.Monitor.ResolverAddress == "" {
		errs = append(errs, "monitor: resolver_address must be set for mode "+c.Mode)
	}
	if c.Monitor.ResolverAddress != "" && !common.IsHexAddress(c.Monitor.ResolverAddress) {
		errs = append(errs, fmt.Sprintf("monitor: resolver_address %q is not a valid address", c.Monitor.ResolverAddress))
	}
	if c.Monitor.Interval.Duration <= 0 {
		errs = append(errs, "monitor: interval must be positive")
	}
	for _, chain := range c.Monitor.TargetChains {
		if chain <= 0 {
			errs = append(errs, fmt.Sprintf("monitor: target chain ids must be positive, got %d", chain))
		}
	}

	// Postgres — persistence is wired for monitor/server/full.
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only required when archival is on.
	if c.Monitor.ArchiveRetentionDays > 0 {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archival is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archival is enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
