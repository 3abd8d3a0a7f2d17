package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
)

// AuditHandler exposes the audit trail
type AuditHandler struct {
	audit  *audit.Logger
	logger *slog.Logger
}

func NewAuditHandler(auditLog *audit.Logger, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{audit: auditLog, logger: logger}
}

// Recent handles GET /api/audit?limit=
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Recent(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"entries": entries})
}

// PresenceHandler lists online users
type PresenceHandler struct {
	tracker *presence.Tracker
	logger  *slog.Logger
}

func NewPresenceHandler(tracker *presence.Tracker, logger *slog.Logger) *PresenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceHandler{tracker: tracker, logger: logger}
}

type onlineResponse struct {
	UserIDs []string `json:"userIds"`
}

// Online handles GET /api/presence
func (h *PresenceHandler) Online(w http.ResponseWriter, r *http.Request) {
	ids, err := h.tracker.OnlineUserIDs(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, onlineResponse{UserIDs: ids})
}
