package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// UploadHandler hands out presigned upload URLs
type UploadHandler struct {
	uploads *service.UploadService
	logger  *slog.Logger
}

func NewUploadHandler(uploads *service.UploadService, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{uploads: uploads, logger: logger}
}

// Presign handles POST /api/uploads/presign
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var req service.PresignInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.uploads.Presign(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
