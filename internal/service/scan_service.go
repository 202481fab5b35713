// Package service coordinates the scanner core with storage, caching,
// alerting, and event fan-out.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solverworks/fusionscan/internal/domain"
	"github.com/solverworks/fusionscan/internal/notify"
	"github.com/solverworks/fusionscan/internal/scanner"
)

// EventChannel is the signal bus channel scan events are published on.
const EventChannel = "scans"

// upstreamQuotaKey is the rate limit key shared by every process talking to
// the order book API.
const upstreamQuotaKey = "oneinch"

// quotaPollInterval is how often a blocked scan re-checks the shared quota.
const quotaPollInterval = 100 * time.Millisecond

// ScanConfig holds the service-level knobs around a scan run.
type ScanConfig struct {
	// RateLimit and RateWindow bound calls against the upstream API across
	// all processes sharing the Redis limiter. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration

	// ReportCacheTTL is how long the latest report stays cached per resolver.
	ReportCacheTTL time.Duration
}

// ScanService runs scans and handles everything around them: report identity,
// persistence, the latest-report cache, event publication, and operator
// alerts. Storage and alerting failures are logged but never fail a scan that
// produced a report.
type ScanService struct {
	scanner  *scanner.BatchScanner
	store    domain.ScanStore
	cache    domain.ReportCache
	bus      domain.SignalBus
	limiter  domain.RateLimiter
	notifier *notify.Notifier
	cfg      ScanConfig
	logger   *slog.Logger
}

// NewScanService creates a ScanService. store, cache, bus, limiter, and
// notifier may each be nil; the corresponding step is skipped.
func NewScanService(
	sc *scanner.BatchScanner,
	store domain.ScanStore,
	cache domain.ReportCache,
	bus domain.SignalBus,
	limiter domain.RateLimiter,
	notifier *notify.Notifier,
	cfg ScanConfig,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		scanner:  sc,
		store:    store,
		cache:    cache,
		bus:      bus,
		limiter:  limiter,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scan_service")),
	}
}

// RunScan executes one scan, assigns the report its identity, and fans the
// result out to the store, cache, bus, and notifier.
func (s *ScanService) RunScan(ctx context.Context, params scanner.ScanParams) (domain.Report, error) {
	if err := s.waitForQuota(ctx); err != nil {
		return domain.Report{}, err
	}

	report, err := s.scanner.Scan(ctx, params)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) {
			s.notifyFailure(ctx, "scan", err)
		}
		return domain.Report{}, err
	}
	report.ID = uuid.NewString()

	if s.store != nil {
		if err := s.store.InsertReport(ctx, report); err != nil {
			s.logger.ErrorContext(ctx, "persist report failed",
				slog.String("report_id", report.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, report.ResolverAddress, report, s.cfg.ReportCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "cache report failed",
				slog.String("report_id", report.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publish(ctx, "scan_completed", report)

	if s.notifier != nil {
		if err := s.notifier.ScanCompleted(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "scan notification failed",
				slog.String("error", err.Error()),
			)
		}
	}
	for _, opp := range report.Opportunities {
		if opp.Recommendation != domain.RecommendFillNow {
			continue
		}
		s.publish(ctx, "fill_now", opp)
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.FillNow(ctx, opp); err != nil {
			s.logger.WarnContext(ctx, "fill-now notification failed",
				slog.String("order_hash", opp.OrderHash),
				slog.String("error", err.Error()),
			)
		}
	}

	return report, nil
}

// GetReport returns one stored report with its opportunities.
func (s *ScanService) GetReport(ctx context.Context, id string) (domain.Report, error) {
	if s.store == nil {
		return domain.Report{}, domain.ErrNotFound
	}
	return s.store.GetReport(ctx, id)
}

// RecentReports returns the most recent stored reports, newest first, without
// their opportunity rows.
func (s *ScanService) RecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRecentReports(ctx, limit)
}

// LatestReport returns the most recent report for a resolver, preferring the
// cache and falling back to the store.
func (s *ScanService) LatestReport(ctx context.Context, resolver string) (domain.Report, error) {
	if s.cache != nil {
		report, err := s.cache.GetLatest(ctx, resolver)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "latest report cache read failed",
				slog.String("resolver", resolver),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.store == nil {
		return domain.Report{}, domain.ErrNotFound
	}

	reports, err := s.store.ListRecentReports(ctx, 50)
	if err != nil {
		return domain.Report{}, err
	}
	for _, r := range reports {
		if strings.EqualFold(r.ResolverAddress, resolver) {
			opps, err := s.store.ListOpportunities(ctx, r.ID)
			if err != nil {
				return domain.Report{}, err
			}
			r.Opportunities = opps
			return r, nil
		}
	}
	return domain.Report{}, domain.ErrNotFound
}

// waitForQuota blocks until the shared upstream quota admits another scan.
func (s *ScanService) waitForQuota(ctx context.Context) error {
	if s.limiter == nil || s.cfg.RateLimit <= 0 {
		return nil
	}

	for {
		allowed, err := s.limiter.Allow(ctx, upstreamQuotaKey, s.cfg.RateLimit, s.cfg.RateWindow)
		if err != nil {
			// Fail open so a limiter outage does not stop scanning.
			s.logger.WarnContext(ctx, "rate limiter unavailable",
				slog.String("error", err.Error()),
			)
			return nil
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(quotaPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: waiting for upstream quota", domain.ErrContextDone)
		case <-timer.C:
		}
	}
}

// publish sends one typed event envelope to the signal bus.
func (s *ScanService) publish(ctx context.Context, eventType string, payload any) {
	if s.bus == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal event failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.bus.Publish(ctx, EventChannel, data); err != nil {
		s.logger.WarnContext(ctx, "publish event failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ScanService) notifyFailure(ctx context.Context, stage string, err error) {
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Failure(ctx, stage, err); nerr != nil {
		s.logger.WarnContext(ctx, "failure notification failed",
			slog.String("error", nerr.Error()),
		)
	}
}
