package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solverworks/fusionscan/internal/domain"
	"github.com/solverworks/fusionscan/internal/scanner"
	"github.com/solverworks/fusionscan/internal/service"
)

const testResolver = "0x1111111111111111111111111111111111111111"

// stubProvider is a canned market data provider for handler-level tests.
type stubProvider struct {
	orders  []domain.Order
	listErr error
}

func (s *stubProvider) ListActiveOrders(ctx context.Context, page, limit int) ([]domain.Order, error) {
	return s.orders, s.listErr
}

func (s *stubProvider) GetOrderStatus(ctx context.Context, orderHash string) (domain.OrderStatusInfo, error) {
	return domain.OrderStatusInfo{OrderHash: orderHash, Status: domain.OrderStatusPending}, nil
}

func (s *stubProvider) GetQuote(ctx context.Context, params domain.QuoteParams) (domain.Quote, error) {
	return domain.Quote{DstTokenAmount: big.NewInt(90)}, nil
}

func testScanHandler(provider scanner.MarketDataProvider) *ScanHandler {
	logger := slog.New(slog.DiscardHandler)
	core := scanner.New(provider, scanner.DefaultConfig(), logger)
	svc := service.NewScanService(core, nil, nil, nil, nil, nil, service.ScanConfig{}, logger)
	return NewScanHandler(svc, logger)
}

func TestRunScan_InvalidBody(t *testing.T) {
	h := testScanHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunScan_InvalidResolver(t *testing.T) {
	h := testScanHandler(&stubProvider{})

	body := `{"resolverAddress":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunScan_BadGasPrice(t *testing.T) {
	h := testScanHandler(&stubProvider{})

	body := `{"resolverAddress":"` + testResolver + `","maxGasPrice":"1.5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunScan_UpstreamDown(t *testing.T) {
	h := testScanHandler(&stubProvider{listErr: errors.New("connection refused")})

	body := `{"resolverAddress":"` + testResolver + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRunScan_Success(t *testing.T) {
	provider := &stubProvider{
		orders: []domain.Order{{
			OrderHash:        "0xabc",
			SrcChainID:       1,
			DstChainID:       137,
			MakerAsset:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			TakerAsset:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			MakingAmount:     big.NewInt(100),
			TakingAmount:     big.NewInt(50),
			AuctionStartDate: 1,
			AuctionEndDate:   2,
		}},
	}
	h := testScanHandler(provider)

	body := `{"resolverAddress":"` + testResolver + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}

	var report domain.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if report.ID == "" {
		t.Error("report ID not assigned")
	}
	if report.TotalOrdersScanned != 1 {
		t.Errorf("TotalOrdersScanned = %d, want 1", report.TotalOrdersScanned)
	}
	if report.ValidOpportunitiesFound != 1 {
		t.Errorf("ValidOpportunitiesFound = %d, want 1", report.ValidOpportunitiesFound)
	}
}
