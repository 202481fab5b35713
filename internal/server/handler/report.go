package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/solverworks/fusionscan/internal/domain"
	"github.com/solverworks/fusionscan/internal/service"
)

// ReportHandler serves stored scan reports.
type ReportHandler struct {
	svc    *service.ScanService
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc *service.ScanService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		svc:    svc,
		logger: logHandler(logger, "report"),
	}
}

// ListRecent returns the most recent reports, newest first, without their
// opportunity rows.
// GET /api/reports/recent?limit=N
func (h *ReportHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 20, 200)

	reports, err := h.svc.RecentReports(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list recent reports failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetByID returns one report with its ranked opportunities.
// GET /api/reports/{id}
func (h *ReportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}

	report, err := h.svc.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get report failed",
			slog.String("report_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetLatest returns the most recent report for a resolver.
// GET /api/reports/latest?resolver=0x...
func (h *ReportHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	resolver := r.URL.Query().Get("resolver")
	if resolver == "" {
		writeError(w, http.StatusBadRequest, "resolver query parameter is required")
		return
	}

	report, err := h.svc.LatestReport(r.Context(), resolver)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no report for resolver")
			return
		}
		h.logger.ErrorContext(r.Context(), "get latest report failed",
			slog.String("resolver", resolver),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get latest report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
