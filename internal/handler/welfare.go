package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// WelfareHandler serves the welfare ledger and decision polls
type WelfareHandler struct {
	welfare *service.WelfareService
	polls   *service.PollService
	logger  *slog.Logger
}

func NewWelfareHandler(welfare *service.WelfareService, polls *service.PollService, logger *slog.Logger) *WelfareHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WelfareHandler{welfare: welfare, polls: polls, logger: logger}
}

// VoteRequest is the body of POST /api/welfare/polls/{id}/vote
type VoteRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

// RecordTransaction handles POST /api/welfare/transactions
func (h *WelfareHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req service.RecordInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tx, err := h.welfare.Record(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"transaction": tx})
}

// Dashboard handles GET /api/welfare/dashboard?month=YYYY-MM
func (h *WelfareHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.welfare.Dashboard(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListPolls handles GET /api/welfare/polls
func (h *WelfareHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.List(r.Context(), caller(r).ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"polls": polls})
}

// GetPoll handles GET /api/welfare/polls/{id}
func (h *WelfareHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	h.respondPoll(w, r, http.StatusOK)(h.polls.Get(r.Context(), r.PathValue("id"), caller(r).ID))
}

// CreatePoll handles POST /api/welfare/polls
func (h *WelfareHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePollInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondPoll(w, r, http.StatusCreated)(h.polls.Create(r.Context(), caller(r).ID, req))
}

// Vote handles POST /api/welfare/polls/{id}/vote
func (h *WelfareHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.OptionIndex == nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "optionIndex is required"})
		return
	}
	h.respondPoll(w, r, http.StatusOK)(h.polls.Vote(r.Context(), r.PathValue("id"), caller(r).ID, *req.OptionIndex))
}

// ClosePoll handles PATCH /api/welfare/polls/{id}/close
func (h *WelfareHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	h.respondPoll(w, r, http.StatusOK)(h.polls.Close(r.Context(), caller(r).ID, r.PathValue("id")))
}

func (h *WelfareHandler) respondPoll(w http.ResponseWriter, r *http.Request, status int) func(*service.PollView, error) {
	return func(p *service.PollView, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, status, envelope{"poll": p})
	}
}
