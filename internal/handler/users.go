package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// UserHandler serves account administration and profile endpoints
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// UpdateRoleRequest is the body of PATCH /api/users/{id}/role
type UpdateRoleRequest struct {
	RoleName domain.RoleName `json:"roleName"`
}

// UpdateProfileRequest is the body of PATCH /api/users/me
type UpdateProfileRequest struct {
	FullName  *string `json:"fullName"`
	Station   *string `json:"station"`
	City      *string `json:"city"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
	CoverURL  *string `json:"coverUrl"`
}

// List handles GET /api/users?status=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), domain.UserStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"users": users})
}

// Pending handles GET /api/users/pending
func (h *UserHandler) Pending(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Pending(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"users": users})
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Create(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"user": user})
}

// Approve handles PATCH /api/users/{id}/approve
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.users.Approve(r.Context(), caller(r).ID, r.PathValue("id")))
}

// Block handles PATCH /api/users/{id}/block
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.users.Block(r.Context(), caller(r).ID, r.PathValue("id")))
}

// Unblock handles PATCH /api/users/{id}/unblock
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.users.Unblock(r.Context(), caller(r).ID, r.PathValue("id")))
}

// UpdateRole handles PATCH /api/users/{id}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.users.UpdateRole(r.Context(), caller(r), r.PathValue("id"), req.RoleName))
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.users.UpdateProfile(r.Context(), caller(r).ID, domain.ProfileUpdate(req)))
}

// RequestAccess handles POST /api/requests/register
func (h *UserHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var req service.AccessRequestInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.RequestAccess(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, registeredResponse{
		Message: "Request received. Your account is pending approval.",
		User:    user,
	})
}

func (h *UserHandler) respond(w http.ResponseWriter, r *http.Request) func(*domain.User, error) {
	return func(user *domain.User, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"user": user})
	}
}
