package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solverworks/fusionscan/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a ScanStore backed by the given connection pool.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

const reportSelectCols = `id, scan_timestamp, resolver_address,
	total_orders_scanned, valid_opportunities_found,
	fill_now_count, monitor_count, skip_count, best_score, average_score,
	min_profit_threshold, note`

// InsertReport stores a report and its ranked opportunities in one
// transaction.
func (s *ScanStore) InsertReport(ctx context.Context, report domain.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin insert report: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertReport = `
		INSERT INTO scan_reports (
			id, scan_timestamp, resolver_address,
			total_orders_scanned, valid_opportunities_found,
			fill_now_count, monitor_count, skip_count, best_score, average_score,
			min_profit_threshold, note
		) VALUES (
			$1, $2, $3,
			$4, $5,
			$6, $7, $8, $9, $10,
			$11, $12
		)`

	_, err = tx.Exec(ctx, insertReport,
		report.ID, report.ScanTimestamp, report.ResolverAddress,
		report.TotalOrdersScanned, report.ValidOpportunitiesFound,
		report.Summary.FillNow, report.Summary.Monitor, report.Summary.Skip,
		report.Summary.BestScore, report.Summary.AverageScore,
		report.MinProfitThreshold, report.Note,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert report %s: %w", report.ID, err)
	}

	const insertOpp = `
		INSERT INTO scan_opportunities (
			report_id, rank, order_hash, src_chain_id, dst_chain_id,
			score, raw_score, profit_margin_percent, raw_profit,
			auction_progress_percent, time_remaining_ms,
			recommendation, scoring_factors
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11,
			$12, $13
		)`

	for rank, opp := range report.Opportunities {
		_, err = tx.Exec(ctx, insertOpp,
			report.ID, rank, opp.OrderHash, opp.SrcChainID, opp.DstChainID,
			opp.Score, opp.RawScore, opp.ProfitMarginPercent, opp.RawProfitWei,
			opp.AuctionProgressPercent, opp.TimeRemainingMs,
			string(opp.Recommendation), opp.ScoringFactors,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert opportunity %s: %w", opp.OrderHash, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit report %s: %w", report.ID, err)
	}
	return nil
}

// GetReport returns one report with its opportunities.
func (s *ScanStore) GetReport(ctx context.Context, id string) (domain.Report, error) {
	query := `SELECT ` + reportSelectCols + ` FROM scan_reports WHERE id = $1`

	report, err := scanReportRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("postgres: get report %s: %w", id, err)
	}

	opps, err := s.ListOpportunities(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	report.Opportunities = opps
	return report, nil
}

// ListRecentReports returns the most recent reports (without their
// opportunity rows) ordered by scan time.
func (s *ScanStore) ListRecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	query := `SELECT ` + reportSelectCols + ` FROM scan_reports ORDER BY scan_timestamp DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		report, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// ListOpportunities returns the ranked opportunity rows of one report.
func (s *ScanStore) ListOpportunities(ctx context.Context, reportID string) ([]domain.OpportunityRecord, error) {
	const query = `
		SELECT order_hash, src_chain_id, dst_chain_id,
			score, raw_score, profit_margin_percent, raw_profit::text,
			auction_progress_percent, time_remaining_ms,
			recommendation, scoring_factors
		FROM scan_opportunities
		WHERE report_id = $1
		ORDER BY rank`

	rows, err := s.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities %s: %w", reportID, err)
	}
	defer rows.Close()

	opps := []domain.OpportunityRecord{}
	for rows.Next() {
		var opp domain.OpportunityRecord
		var rec string
		err := rows.Scan(
			&opp.OrderHash, &opp.SrcChainID, &opp.DstChainID,
			&opp.Score, &opp.RawScore, &opp.ProfitMarginPercent, &opp.RawProfitWei,
			&opp.AuctionProgressPercent, &opp.TimeRemainingMs,
			&rec, &opp.ScoringFactors,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity row: %w", err)
		}
		opp.Recommendation = domain.Recommendation(rec)
		if n, ok := new(big.Int).SetString(opp.RawProfitWei, 10); ok {
			opp.RawProfit = n
		}
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

// ListReportsBefore returns full reports older than cutoff, oldest first,
// with their opportunity rows populated. Used by the archiver before pruning.
func (s *ScanStore) ListReportsBefore(ctx context.Context, cutoff time.Time) ([]domain.Report, error) {
	query := `SELECT ` + reportSelectCols + `
		FROM scan_reports WHERE scan_timestamp < $1 ORDER BY scan_timestamp`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reports before %s: %w", cutoff, err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		report, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reports {
		opps, err := s.ListOpportunities(ctx, reports[i].ID)
		if err != nil {
			return nil, err
		}
		reports[i].Opportunities = opps
	}
	return reports, nil
}

// DeleteReportsBefore removes reports older than cutoff; opportunity rows
// follow via ON DELETE CASCADE.
func (s *ScanStore) DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM scan_reports WHERE scan_timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete reports before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

// scanReportRow reads one scan_reports row into a domain.Report.
func scanReportRow(row pgx.Row) (domain.Report, error) {
	var report domain.Report
	err := row.Scan(
		&report.ID, &report.ScanTimestamp, &report.ResolverAddress,
		&report.TotalOrdersScanned, &report.ValidOpportunitiesFound,
		&report.Summary.FillNow, &report.Summary.Monitor, &report.Summary.Skip,
		&report.Summary.BestScore, &report.Summary.AverageScore,
		&report.MinProfitThreshold, &report.Note,
	)
	return report, err
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
