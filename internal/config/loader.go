package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FUSIONSCAN_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FUSIONSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── 1inch ──
	setStr(&cfg.OneInch.BaseURL, "FUSIONSCAN_ONEINCH_BASE_URL")
	setStr(&cfg.OneInch.APIKey, "FUSIONSCAN_ONEINCH_API_KEY")
	setStr(&cfg.OneInch.APIKey, "ONEINCH_API_KEY") // compatibility alias
	setDuration(&cfg.OneInch.Timeout, "FUSIONSCAN_ONEINCH_TIMEOUT")
	setInt(&cfg.OneInch.RateLimit, "FUSIONSCAN_ONEINCH_RATE_LIMIT")
	setDuration(&cfg.OneInch.RateWindow, "FUSIONSCAN_ONEINCH_RATE_WINDOW")

	// ── Scanner ──
	setInt(&cfg.Scanner.PageSize, "FUSIONSCAN_SCANNER_PAGE_SIZE")
	setInt(&cfg.Scanner.EvalLimit, "FUSIONSCAN_SCANNER_EVAL_LIMIT")
	setInt(&cfg.Scanner.Concurrency, "FUSIONSCAN_SCANNER_CONCURRENCY")
	setDuration(&cfg.Scanner.EvalTimeout, "FUSIONSCAN_SCANNER_EVAL_TIMEOUT")
	setInt(&cfg.Scanner.MaxResults, "FUSIONSCAN_SCANNER_MAX_RESULTS")
	setFloat64(&cfg.Scanner.FillNowThreshold, "FUSIONSCAN_SCANNER_FILL_NOW_THRESHOLD")
	setFloat64(&cfg.Scanner.MonitorThreshold, "FUSIONSCAN_SCANNER_MONITOR_THRESHOLD")
	setInt64Slice(&cfg.Scanner.MajorChains, "FUSIONSCAN_SCANNER_MAJOR_CHAINS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "FUSIONSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FUSIONSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FUSIONSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FUSIONSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FUSIONSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FUSIONSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FUSIONSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FUSIONSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FUSIONSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FUSIONSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FUSIONSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FUSIONSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FUSIONSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FUSIONSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FUSIONSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FUSIONSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FUSIONSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FUSIONSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "FUSIONSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FUSIONSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FUSIONSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FUSIONSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FUSIONSCAN_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FUSIONSCAN_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FUSIONSCAN_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "FUSIONSCAN_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "FUSIONSCAN_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "FUSIONSCAN_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "FUSIONSCAN_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FUSIONSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FUSIONSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FUSIONSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FUSIONSCAN_NOTIFY_EVENTS")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "FUSIONSCAN_MONITOR_INTERVAL")
	setStr(&cfg.Monitor.ResolverAddress, "FUSIONSCAN_MONITOR_RESOLVER_ADDRESS")
	setInt64Slice(&cfg.Monitor.TargetChains, "FUSIONSCAN_MONITOR_TARGET_CHAINS")
	setStr(&cfg.Monitor.MaxGasPrice, "FUSIONSCAN_MONITOR_MAX_GAS_PRICE")
	setFloat64(&cfg.Monitor.MinProfitThreshold, "FUSIONSCAN_MONITOR_MIN_PROFIT_THRESHOLD")
	setInt(&cfg.Monitor.ArchiveRetentionDays, "FUSIONSCAN_MONITOR_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Monitor.ArchiveInterval, "FUSIONSCAN_MONITOR_ARCHIVE_INTERVAL")
	setDuration(&cfg.Monitor.ReportCacheTTL, "FUSIONSCAN_MONITOR_REPORT_CACHE_TTL")

	// ── Top-level ──
	setStr(&cfg.Mode, "FUSIONSCAN_MODE")
	setStr(&cfg.LogLevel, "FUSIONSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setInt64Slice(dst *[]int64, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]int64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if n, err := strconv.ParseInt(p, 10, 64); err == nil {
				cleaned = append(cleaned, n)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
