package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/solverworks/fusionscan/internal/domain"
	"github.com/solverworks/fusionscan/internal/scanner"
	"github.com/solverworks/fusionscan/internal/service"
)

// ScanHandler triggers scans over the API.
type ScanHandler struct {
	svc    *service.ScanService
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(svc *service.ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		svc:    svc,
		logger: logHandler(logger, "scan"),
	}
}

// scanRequest is the POST /api/scan request body. MaxGasPrice is a decimal
// string in destination token base units.
type scanRequest struct {
	ResolverAddress    string  `json:"resolverAddress"`
	MaxGasPrice        string  `json:"maxGasPrice,omitempty"`
	MinProfitThreshold float64 `json:"minProfitThreshold,omitempty"`
	TargetChains       []int64 `json:"targetChains,omitempty"`
	MaxResults         int     `json:"maxResults,omitempty"`
}

// RunScan executes a synchronous scan and returns the full report.
// POST /api/scan
func (h *ScanHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params := scanner.ScanParams{
		ResolverAddress:    req.ResolverAddress,
		MinProfitThreshold: req.MinProfitThreshold,
		TargetChains:       req.TargetChains,
		MaxResults:         req.MaxResults,
	}
	if req.MaxGasPrice != "" {
		gas, ok := new(big.Int).SetString(req.MaxGasPrice, 10)
		if !ok || gas.Sign() < 0 {
			writeError(w, http.StatusBadRequest, "maxGasPrice must be a non-negative decimal string")
			return
		}
		params.MaxGasPrice = gas
	}

	report, err := h.svc.RunScan(r.Context(), params)
	if err != nil {
		h.writeScanError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ScanHandler) writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrContextDone):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "scan failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "scan failed")
	}
}
