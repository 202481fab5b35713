package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/solverworks/fusionscan/internal/blob/s3"
	"github.com/solverworks/fusionscan/internal/cache/redis"
	"github.com/solverworks/fusionscan/internal/config"
	"github.com/solverworks/fusionscan/internal/domain"
	"github.com/solverworks/fusionscan/internal/notify"
	"github.com/solverworks/fusionscan/internal/platform/oneinch"
	"github.com/solverworks/fusionscan/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function. Fields
// not required by the active mode stay nil.
type Dependencies struct {
	Provider *oneinch.Client

	ScanStore   domain.ScanStore
	ReportCache domain.ReportCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	Archiver *s3blob.Archiver
	Notifier *notify.Notifier
}

// needsPostgres reports whether the mode persists reports.
func needsPostgres(mode string) bool {
	switch mode {
	case "monitor", "server", "full":
		return true
	default:
		return false
	}
}

// needsRedis reports whether the mode uses the cache, limiter, and bus. The
// one-shot scan mode runs without external state.
func needsRedis(mode string) bool {
	return needsPostgres(mode)
}

// needsS3 reports whether the mode runs retention sweeps.
func needsS3(mode string, retentionDays int) bool {
	if retentionDays <= 0 {
		return false
	}
	switch mode {
	case "monitor", "full":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependencies for cfg.Mode and returns them
// with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Provider: oneinch.NewClient(cfg.OneInch.BaseURL, cfg.OneInch.APIKey, cfg.OneInch.Timeout.Duration),
	}

	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.ScanStore = postgres.NewScanStore(pgClient.Pool())
	}

	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.ReportCache = redis.NewReportCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	if needsS3(cfg.Mode, cfg.Monitor.ArchiveRetentionDays) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.ScanStore, logger)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
