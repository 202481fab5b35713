package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/solverworks/fusionscan/internal/domain"
)

const testResolver = "0x1111111111111111111111111111111111111111"

// fakeProvider serves canned orders, statuses, and quotes. Quotes are keyed
// by the source token of the request (the order's taker asset).
type fakeProvider struct {
	orders    []domain.Order
	listErr   error
	statuses  map[string]domain.OrderStatus
	statusErr map[string]error
	quotes    map[string]domain.Quote
	quoteErr  map[string]error
}

func (f *fakeProvider) ListActiveOrders(ctx context.Context, page, limit int) ([]domain.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.orders, nil
}

func (f *fakeProvider) GetOrderStatus(ctx context.Context, orderHash string) (domain.OrderStatusInfo, error) {
	if err := f.statusErr[orderHash]; err != nil {
		return domain.OrderStatusInfo{}, err
	}
	status, ok := f.statuses[orderHash]
	if !ok {
		status = domain.OrderStatusPending
	}
	return domain.OrderStatusInfo{OrderHash: orderHash, Status: status}, nil
}

func (f *fakeProvider) GetQuote(ctx context.Context, params domain.QuoteParams) (domain.Quote, error) {
	if err := f.quoteErr[params.SrcToken]; err != nil {
		return domain.Quote{}, err
	}
	quote, ok := f.quotes[params.SrcToken]
	if !ok {
		return domain.Quote{}, domain.ErrNoQuote
	}
	return quote, nil
}

// testOrder builds an order whose taker asset encodes n so quotes can be
// routed per order.
func testOrder(n int, srcChain, dstChain int64, start, end int64) domain.Order {
	return domain.Order{
		OrderHash:        fmt.Sprintf("0xhash%02d", n),
		SrcChainID:       srcChain,
		DstChainID:       dstChain,
		MakerAsset:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TakerAsset:       fmt.Sprintf("0x%040d", n),
		MakingAmount:     big.NewInt(200),
		TakingAmount:     big.NewInt(100),
		AuctionStartDate: start,
		AuctionEndDate:   end,
	}
}

func testScanner(t *testing.T, provider MarketDataProvider, now time.Time) *BatchScanner {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return New(provider, DefaultConfig(), logger).WithClock(func() time.Time { return now })
}

func TestScan_InvalidResolver(t *testing.T) {
	s := testScanner(t, &fakeProvider{}, time.Now())

	_, err := s.Scan(context.Background(), ScanParams{ResolverAddress: "not-an-address"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestScan_UpstreamListFailure(t *testing.T) {
	s := testScanner(t, &fakeProvider{listErr: errors.New("boom")}, time.Now())

	_, err := s.Scan(context.Background(), ScanParams{ResolverAddress: testResolver})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestScan_NoActiveOrders(t *testing.T) {
	s := testScanner(t, &fakeProvider{}, time.Now())

	report, err := s.Scan(context.Background(), ScanParams{ResolverAddress: testResolver})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.TotalOrdersScanned != 0 || len(report.Opportunities) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if report.Note == "" {
		t.Error("want an explanatory note on an empty scan")
	}
}

func TestScan_TargetChainFilter(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, now.UnixMilli()-1000, now.UnixMilli()+1000),
		},
	}
	s := testScanner(t, provider, now)

	report, err := s.Scan(context.Background(), ScanParams{
		ResolverAddress: testResolver,
		TargetChains:    []int64{42161},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.TotalOrdersScanned != 0 {
		t.Errorf("TotalOrdersScanned = %d, want 0 after chain filter", report.TotalOrdersScanned)
	}
	if report.Note != "no active orders matched the target chains" {
		t.Errorf("Note = %q", report.Note)
	}
}

func TestScan_ExcludesNonPending(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	start, end := now.UnixMilli()-60_000, now.UnixMilli()+60_000

	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, start, end),
			testOrder(2, 1, 137, start, end),
		},
		statuses: map[string]domain.OrderStatus{
			"0xhash02": domain.OrderStatusFilled,
		},
		quotes: map[string]domain.Quote{
			fmt.Sprintf("0x%040d", 1): {DstTokenAmount: big.NewInt(190)},
			fmt.Sprintf("0x%040d", 2): {DstTokenAmount: big.NewInt(190)},
		},
	}
	s := testScanner(t, provider, now)

	report, err := s.Scan(context.Background(), ScanParams{ResolverAddress: testResolver})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.TotalOrdersScanned != 2 {
		t.Errorf("TotalOrdersScanned = %d, want 2", report.TotalOrdersScanned)
	}
	if report.ValidOpportunitiesFound != 1 {
		t.Fatalf("ValidOpportunitiesFound = %d, want 1", report.ValidOpportunitiesFound)
	}
	if report.Opportunities[0].OrderHash != "0xhash01" {
		t.Errorf("kept %s, want 0xhash01", report.Opportunities[0].OrderHash)
	}
}

func TestScan_QuoteFailureExcludesOnlyThatOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	start, end := now.UnixMilli()-60_000, now.UnixMilli()+60_000

	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, start, end),
			testOrder(2, 1, 137, start, end),
			testOrder(3, 1, 137, start, end),
		},
		quotes: map[string]domain.Quote{
			fmt.Sprintf("0x%040d", 1): {DstTokenAmount: big.NewInt(190)},
			fmt.Sprintf("0x%040d", 3): {DstTokenAmount: big.NewInt(190)},
		},
		quoteErr: map[string]error{
			fmt.Sprintf("0x%040d", 2): domain.ErrRateLimited,
		},
	}
	s := testScanner(t, provider, now)

	report, err := s.Scan(context.Background(), ScanParams{ResolverAddress: testResolver})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.TotalOrdersScanned != 3 {
		t.Errorf("TotalOrdersScanned = %d, want 3", report.TotalOrdersScanned)
	}
	if report.ValidOpportunitiesFound != 2 {
		t.Errorf("ValidOpportunitiesFound = %d, want 2", report.ValidOpportunitiesFound)
	}
	for _, opp := range report.Opportunities {
		if opp.OrderHash == "0xhash02" {
			t.Error("order with failed quote must be excluded, not zero-scored")
		}
	}
}

func TestScan_RanksAndTruncates(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	start, end := now.UnixMilli()-60_000, now.UnixMilli()+60_000

	// Order 2 has the biggest margin, order 3 the smallest.
	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, start, end),
			testOrder(2, 1, 137, start, end),
			testOrder(3, 1, 137, start, end),
		},
		quotes: map[string]domain.Quote{
			fmt.Sprintf("0x%040d", 1): {DstTokenAmount: big.NewInt(196)}, // ~2%
			fmt.Sprintf("0x%040d", 2): {DstTokenAmount: big.NewInt(190)}, // ~5%
			fmt.Sprintf("0x%040d", 3): {DstTokenAmount: big.NewInt(199)}, // ~0.5%
		},
	}
	s := testScanner(t, provider, now)

	report, err := s.Scan(context.Background(), ScanParams{
		ResolverAddress: testResolver,
		MaxResults:      2,
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(report.Opportunities) != 2 {
		t.Fatalf("len(Opportunities) = %d, want truncation to 2", len(report.Opportunities))
	}
	if report.Opportunities[0].OrderHash != "0xhash02" {
		t.Errorf("top = %s, want 0xhash02", report.Opportunities[0].OrderHash)
	}
	if report.Opportunities[0].RawScore < report.Opportunities[1].RawScore {
		t.Error("opportunities not sorted by raw score descending")
	}

	// Summary covers all valid evaluations, not just the truncated list.
	if report.ValidOpportunitiesFound != 3 {
		t.Errorf("ValidOpportunitiesFound = %d, want 3", report.ValidOpportunitiesFound)
	}
	total := report.Summary.FillNow + report.Summary.Monitor + report.Summary.Skip
	if total != 3 {
		t.Errorf("summary counts sum to %d, want 3", total)
	}
}

func TestScan_EqualScoresKeepDiscoveryOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	start, end := now.UnixMilli()-60_000, now.UnixMilli()+60_000

	// Five orders identical in every scoring input; only the hash and the
	// taker asset differ, so every raw score comes out the same.
	provider := &fakeProvider{quotes: map[string]domain.Quote{}}
	var wantOrder []string
	for n := 1; n <= 5; n++ {
		provider.orders = append(provider.orders, testOrder(n, 1, 137, start, end))
		provider.quotes[fmt.Sprintf("0x%040d", n)] = domain.Quote{DstTokenAmount: big.NewInt(190)}
		wantOrder = append(wantOrder, fmt.Sprintf("0xhash%02d", n))
	}
	s := testScanner(t, provider, now)

	report, err := s.Scan(context.Background(), ScanParams{ResolverAddress: testResolver})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(report.Opportunities) != 5 {
		t.Fatalf("len(Opportunities) = %d, want 5", len(report.Opportunities))
	}

	for i, opp := range report.Opportunities {
		if opp.RawScore != report.Opportunities[0].RawScore {
			t.Fatalf("scores differ (%f vs %f); orders were meant to tie",
				opp.RawScore, report.Opportunities[0].RawScore)
		}
		if opp.OrderHash != wantOrder[i] {
			t.Errorf("rank %d = %s, want %s (tied scores must keep discovery order)",
				i, opp.OrderHash, wantOrder[i])
		}
	}
}

func TestScan_DeterministicUnderFrozenClock(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	start, end := now.UnixMilli()-30_000, now.UnixMilli()+90_000

	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, start, end),
			testOrder(2, 10, 42161, start, end),
		},
		quotes: map[string]domain.Quote{
			fmt.Sprintf("0x%040d", 1): {DstTokenAmount: big.NewInt(190)},
			fmt.Sprintf("0x%040d", 2): {DstTokenAmount: big.NewInt(180)},
		},
	}
	s := testScanner(t, provider, now)
	params := ScanParams{ResolverAddress: testResolver}

	first, err := s.Scan(context.Background(), params)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := s.Scan(context.Background(), params)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reports differ under a frozen clock:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	provider := &fakeProvider{
		orders: []domain.Order{
			testOrder(1, 1, 137, now.UnixMilli()-1000, now.UnixMilli()+1000),
		},
	}
	s := testScanner(t, provider, now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Scan(ctx, ScanParams{ResolverAddress: testResolver})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Note != "scan cancelled before all orders were evaluated; partial report" {
		t.Errorf("Note = %q, want partial-report note", report.Note)
	}
}
