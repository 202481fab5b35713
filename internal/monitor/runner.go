// Package monitor drives periodic scans and retention sweeps.
package monitor

import (
	"context"
	"log/slog"
	"time"

	s3blob "github.com/solverworks/fusionscan/internal/blob/s3"
	"github.com/solverworks/fusionscan/internal/scanner"
	"github.com/solverworks/fusionscan/internal/service"
)

// Config holds the monitor loop settings.
type Config struct {
	// Interval between scans.
	Interval time.Duration

	// ArchiveInterval between retention sweeps. Zero disables sweeps.
	ArchiveInterval time.Duration

	// RetentionDays is how long reports stay in the primary store before
	// being exported to object storage. Zero disables sweeps.
	RetentionDays int

	// Params are the scan parameters used for every run.
	Params scanner.ScanParams
}

// Runner scans on a fixed interval and periodically archives old reports.
// Individual scan failures are logged and the loop keeps going; only context
// cancellation stops it.
type Runner struct {
	svc      *service.ScanService
	archiver *s3blob.Archiver
	cfg      Config
	logger   *slog.Logger
}

// New creates a Runner. archiver may be nil to disable retention sweeps.
func New(svc *service.ScanService, archiver *s3blob.Archiver, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		svc:      svc,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// Run starts the loop. The first scan fires immediately; later ones follow
// the configured interval. It returns the context error on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "monitor starting",
		slog.Duration("interval", r.cfg.Interval),
		slog.String("resolver", r.cfg.Params.ResolverAddress),
	)

	scanTicker := time.NewTicker(r.cfg.Interval)
	defer scanTicker.Stop()

	var archiveCh <-chan time.Time
	if r.sweepEnabled() {
		archiveTicker := time.NewTicker(r.cfg.ArchiveInterval)
		defer archiveTicker.Stop()
		archiveCh = archiveTicker.C
	}

	r.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "monitor stopping")
			return ctx.Err()
		case <-scanTicker.C:
			r.scanOnce(ctx)
		case <-archiveCh:
			r.sweepOnce(ctx)
		}
	}
}

func (r *Runner) scanOnce(ctx context.Context) {
	report, err := r.svc.RunScan(ctx, r.cfg.Params)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.ErrorContext(ctx, "scheduled scan failed",
			slog.String("error", err.Error()),
		)
		return
	}

	r.logger.InfoContext(ctx, "scheduled scan completed",
		slog.String("report_id", report.ID),
		slog.Int("orders_scanned", report.TotalOrdersScanned),
		slog.Int("opportunities", report.ValidOpportunitiesFound),
		slog.Int("fill_now", report.Summary.FillNow),
	)
}

func (r *Runner) sweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.cfg.RetentionDays)

	archived, err := r.archiver.ArchiveReports(ctx, cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.ErrorContext(ctx, "retention sweep failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if archived > 0 {
		r.logger.InfoContext(ctx, "retention sweep completed",
			slog.Int64("archived", archived),
			slog.Time("cutoff", cutoff),
		)
	}
}

func (r *Runner) sweepEnabled() bool {
	return r.archiver != nil && r.cfg.ArchiveInterval > 0 && r.cfg.RetentionDays > 0
}
