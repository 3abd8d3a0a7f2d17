package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// InviteHandler serves invite creation and redemption
type InviteHandler struct {
	invites *service.InviteService
	logger  *slog.Logger
}

func NewInviteHandler(invites *service.InviteService, logger *slog.Logger) *InviteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InviteHandler{invites: invites, logger: logger}
}

type registeredResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// Create handles POST /api/invites
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInviteInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.invites.Create(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Get handles GET /api/invites/{token}
func (h *InviteHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.invites.Get(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"invite": view})
}

// Register handles POST /api/invites/{token}/register
func (h *InviteHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.invites.Redeem(r.Context(), r.PathValue("token"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, registeredResponse{
		Message: "Registration received. Your account is pending approval.",
		User:    user,
	})
}
