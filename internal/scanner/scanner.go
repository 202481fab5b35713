package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/solverworks/fusionscan/internal/domain"
)

// MarketDataProvider is the upstream order book and quoter the scanner reads.
// All three operations are idempotent reads; implementations are expected to
// be network-backed, rate-limited, and fallible.
type MarketDataProvider interface {
	ListActiveOrders(ctx context.Context, page, limit int) ([]domain.Order, error)
	GetOrderStatus(ctx context.Context, orderHash string) (domain.OrderStatusInfo, error)
	GetQuote(ctx context.Context, params domain.QuoteParams) (domain.Quote, error)
}

// Config holds the tunable batch parameters. Defaults are the reference
// values; see DefaultConfig.
type Config struct {
	// PageSize is the upper bound of active orders fetched in one page.
	PageSize int
	// EvalLimit caps how many filtered orders are evaluated per scan, to
	// respect upstream rate limits.
	EvalLimit int
	// Concurrency bounds the per-order evaluation worker pool.
	Concurrency int
	// EvalTimeout bounds the status+quote fetches for a single order. A
	// timeout counts as an evaluation failure: the order is excluded.
	EvalTimeout time.Duration
	// MaxResults is the default ranked-list truncation when a scan request
	// does not specify one.
	MaxResults int
	Score      ScoreConfig
}

// DefaultConfig returns the reference batch parameters.
func DefaultConfig() Config {
	return Config{
		PageSize:    500,
		EvalLimit:   50,
		Concurrency: 8,
		EvalTimeout: 10 * time.Second,
		MaxResults:  10,
		Score:       DefaultScoreConfig(),
	}
}

// ScanParams are the inputs of one scan invocation.
type ScanParams struct {
	// ResolverAddress is the wallet quotes are requested on behalf of. It is
	// validated upstream but defensively re-checked here.
	ResolverAddress string
	// MaxGasPrice is the gas-cost ceiling; nil means no ceiling (any known
	// gas cost is acceptable).
	MaxGasPrice *big.Int
	// MinProfitThreshold is advisory metadata surfaced in the report. It is
	// never a hard filter: ranking is driven purely by score, so a thin
	// margin with high auction maturity can outrank a nominally profitable
	// order below the threshold.
	MinProfitThreshold float64
	// TargetChains, when non-empty, retains only orders whose source or
	// destination chain is in the set.
	TargetChains []int64
	// MaxResults overrides Config.MaxResults when positive.
	MaxResults int
}

// BatchScanner orchestrates one scan: fetch a page of active orders, filter
// by target chains, evaluate each order concurrently with all-settled
// semantics, rank survivors by score, and assemble a report. All state is
// request-scoped; nothing is retained between scans.
type BatchScanner struct {
	provider MarketDataProvider
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a BatchScanner over the given provider.
func New(provider MarketDataProvider, cfg Config, logger *slog.Logger) *BatchScanner {
	return &BatchScanner{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scanner")),
		now:      time.Now,
	}
}

// WithClock overrides the scanner's clock. Intended for tests that need a
// frozen time base.
func (s *BatchScanner) WithClock(now func() time.Time) *BatchScanner {
	s.now = now
	return s
}

// Scan runs the full Fetching -> Filtering -> Evaluating -> Ranking -> Done
// pipeline. Only two failure classes abort the call: invalid input and an
// unavailable upstream on the initial listing. Every per-order failure is
// isolated and surfaces only as a lower validOpportunitiesFound count. A
// cancelled context stops new evaluations and yields a partial report.
func (s *BatchScanner) Scan(ctx context.Context, params ScanParams) (domain.Report, error) {
	if err := validateParams(params); err != nil {
		return domain.Report{}, err
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
	}

	now := s.now().UTC()
	report := domain.Report{
		ScanTimestamp:      now,
		ResolverAddress:    normalizeAddress(params.ResolverAddress),
		MinProfitThreshold: params.MinProfitThreshold,
		Opportunities:      []domain.OpportunityRecord{},
	}

	// Fetching.
	orders, err := s.provider.ListActiveOrders(ctx, 1, s.cfg.PageSize)
	if err != nil {
		return domain.Report{}, fmt.Errorf("%w: list active orders: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(orders) == 0 {
		report.Note = "no active orders returned by the order book"
		return report, nil
	}

	// Filtering.
	filtered := filterByChains(orders, params.TargetChains)
	report.TotalOrdersScanned = len(filtered)
	if len(filtered) == 0 {
		report.Note = "no active orders matched the target chains"
		return report, nil
	}
	if len(filtered) > s.cfg.EvalLimit {
		filtered = filtered[:s.cfg.EvalLimit]
		report.TotalOrdersScanned = len(filtered)
	}

	// Evaluating: bounded fan-out with all-settled join. Each slot is
	// written by exactly one goroutine; a nil slot means the order was
	// excluded. One order's failure never cancels its siblings.
	results := make([]*domain.OpportunityRecord, len(filtered))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	cancelled := false
	for i, order := range filtered {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		g.Go(func() error {
			rec := s.evaluateOrder(ctx, order, params)
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	// Ranking: collect survivors in discovery order, then stable-sort by raw
	// score descending so ties keep discovery order.
	valid := make([]domain.OpportunityRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			valid = append(valid, *rec)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].RawScore > valid[j].RawScore
	})

	report.ValidOpportunitiesFound = len(valid)
	report.Summary = summarize(valid)
	if len(valid) > maxResults {
		valid = valid[:maxResults]
	}
	report.Opportunities = valid

	switch {
	case cancelled:
		report.Note = "scan cancelled before all orders were evaluated; partial report"
	case len(valid) == 0:
		report.Note = "no orders produced a valid evaluation"
	}

	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("orders_scanned", report.TotalOrdersScanned),
		slog.Int("opportunities", report.ValidOpportunitiesFound),
		slog.Int("fill_now", report.Summary.FillNow),
	)

	return report, nil
}

// evaluateOrder runs the full per-order pipeline: status check, reverse
// quote, auction model, profit estimate, score. It returns nil whenever the
// order must be excluded; exclusion, not a zero score, is how failure is
// represented.
func (s *BatchScanner) evaluateOrder(ctx context.Context, order domain.Order, params ScanParams) *domain.OpportunityRecord {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout)
	defer cancel()

	log := s.logger.With(slog.String("order_hash", order.OrderHash))

	status, err := s.provider.GetOrderStatus(ctx, order.OrderHash)
	if err != nil {
		log.DebugContext(ctx, "order excluded: status fetch failed", slog.String("error", err.Error()))
		return nil
	}
	if status.Status != domain.OrderStatusPending {
		log.DebugContext(ctx, "order excluded: not pending", slog.String("status", string(status.Status)))
		return nil
	}

	// Zero-amount pairs cannot be priced.
	if order.TakingAmount == nil || order.TakingAmount.Sign() <= 0 {
		log.DebugContext(ctx, "order excluded: zero taking amount")
		return nil
	}

	quote, err := s.provider.GetQuote(ctx, ReverseQuoteParams(order, params.ResolverAddress))
	if err != nil {
		log.DebugContext(ctx, "order excluded: quote fetch failed", slog.String("error", err.Error()))
		return nil
	}
	if quote.DstTokenAmount == nil {
		log.DebugContext(ctx, "order excluded: quote missing dst token amount")
		return nil
	}

	est := EstimateProfit(order, quote)

	nowMs := s.now().UnixMilli()
	progress := Progress(nowMs, order.AuctionStartDate, order.AuctionEndDate)
	remaining := TimeRemaining(nowMs, order.AuctionEndDate)

	margin, _ := est.ProfitMarginPercent.Float64()
	scored := s.cfg.Score.Score(ScoreInput{
		ProfitMarginPercent: margin,
		AuctionProgress:     progress,
		GasCost:             est.GasCost,
		MaxGasPrice:         params.MaxGasPrice,
		MajorPair:           s.cfg.Score.IsMajorPair(order.SrcChainID, order.DstChainID),
	})

	return &domain.OpportunityRecord{
		OrderHash:              order.OrderHash,
		SrcChainID:             order.SrcChainID,
		DstChainID:             order.DstChainID,
		Score:                  scored.Score,
		RawScore:               scored.Raw,
		ProfitMarginPercent:    est.ProfitMarginPercent.String(),
		RawProfit:              est.RawProfit,
		RawProfitWei:           est.RawProfit.String(),
		AuctionProgressPercent: progress * 100,
		TimeRemainingMs:        remaining,
		Recommendation:         scored.Recommendation,
		ScoringFactors:         scored.Factors,
	}
}

// validateParams re-checks the inbound contract the tool layer promises.
func validateParams(params ScanParams) error {
	if !common.IsHexAddress(params.ResolverAddress) {
		return fmt.Errorf("%w: resolver address %q is not a 0x-prefixed 40-hex-digit address",
			domain.ErrInvalidInput, params.ResolverAddress)
	}
	if params.MaxResults < 0 {
		return fmt.Errorf("%w: maxResults must not be negative, got %d",
			domain.ErrInvalidInput, params.MaxResults)
	}
	for _, chain := range params.TargetChains {
		if chain <= 0 {
			return fmt.Errorf("%w: target chain id must be positive, got %d",
				domain.ErrInvalidInput, chain)
		}
	}
	return nil
}

// normalizeAddress returns the EIP-55 checksummed form of addr.
func normalizeAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}

// filterByChains retains orders whose source or destination chain is in the
// target set. An empty set keeps everything.
func filterByChains(orders []domain.Order, targets []int64) []domain.Order {
	if len(targets) == 0 {
		return orders
	}
	set := make(map[int64]bool, len(targets))
	for _, c := range targets {
		set[c] = true
	}
	kept := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if set[o.SrcChainID] || set[o.DstChainID] {
			kept = append(kept, o)
		}
	}
	return kept
}

// summarize aggregates recommendation counts and score statistics over the
// full set of valid opportunities (before truncation).
func summarize(records []domain.OpportunityRecord) domain.ReportSummary {
	var sum domain.ReportSummary
	if len(records) == 0 {
		return sum
	}
	total := 0
	for _, rec := range records {
		switch rec.Recommendation {
		case domain.RecommendFillNow:
			sum.FillNow++
		case domain.RecommendMonitor:
			sum.Monitor++
		default:
			sum.Skip++
		}
		if rec.Score > sum.BestScore {
			sum.BestScore = rec.Score
		}
		total += rec.Score
	}
	sum.AverageScore = float64(total) / float64(len(records))
	return sum
}
