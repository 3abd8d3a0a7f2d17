package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// ReportHandler serves moderation reports
type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// UpdateReportRequest is the body of PATCH /api/reports/{id}
type UpdateReportRequest struct {
	Status domain.ReportStatus `json:"status"`
}

// Create handles POST /api/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReportInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rep, err := h.reports.Create(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"report": rep})
}

// List handles GET /api/reports?status=
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reps, err := h.reports.List(r.Context(), domain.ReportStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"reports": reps})
}

// Update handles PATCH /api/reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rep, err := h.reports.UpdateStatus(r.Context(), caller(r).ID, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"report": rep})
}
