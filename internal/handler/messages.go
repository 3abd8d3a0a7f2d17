package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// MessageHandler serves direct and group messaging
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{messages: messages, logger: logger}
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.SendInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	view, err := h.messages.Send(r.Context(), caller(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": view})
}

// History handles GET /api/messages?withUser=|groupId=
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.messages.History(r.Context(), caller(r), q.Get("withUser"), q.Get("groupId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"messages": views})
}

// MarkRead handles PATCH /api/messages/{id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.MarkRead(r.Context(), caller(r), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
