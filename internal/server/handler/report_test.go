package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solverworks/fusionscan/internal/scanner"
	"github.com/solverworks/fusionscan/internal/service"
)

func testReportHandler() *ReportHandler {
	logger := slog.New(slog.DiscardHandler)
	core := scanner.New(&stubProvider{}, scanner.DefaultConfig(), logger)
	svc := service.NewScanService(core, nil, nil, nil, nil, nil, service.ScanConfig{}, logger)
	return NewReportHandler(svc, logger)
}

func TestListRecent_NoStore(t *testing.T) {
	h := testReportHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Reports []json.RawMessage `json:"reports"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 0 || resp.Reports == nil {
		t.Errorf("resp = %+v, want empty non-null list", resp)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	h := testReportHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/missing-id", nil)
	req.SetPathValue("id", "missing-id")
	rec := httptest.NewRecorder()
	h.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetLatest_MissingResolver(t *testing.T) {
	h := testReportHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/latest", nil)
	rec := httptest.NewRecorder()
	h.GetLatest(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetLatest_NotFound(t *testing.T) {
	h := testReportHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/latest?resolver=0x1111111111111111111111111111111111111111", nil)
	rec := httptest.NewRecorder()
	h.GetLatest(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
