package domain

import (
	"context"
	"time"
)

// ScanStore persists scan reports and their opportunity rows.
type ScanStore interface {
	InsertReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, id string) (Report, error)
	ListRecentReports(ctx context.Context, limit int) ([]Report, error)
	ListOpportunities(ctx context.Context, reportID string) ([]OpportunityRecord, error)
	// ListReportsBefore returns full reports (opportunities included) whose
	// scan timestamp precedes cutoff, oldest first.
	ListReportsBefore(ctx context.Context, cutoff time.Time) ([]Report, error)
	// DeleteReportsBefore removes reports whose scan timestamp precedes
	// cutoff and returns how many were deleted. Used by the archiver after
	// a successful export.
	DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
