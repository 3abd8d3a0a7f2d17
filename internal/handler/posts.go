package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

// PostHandler serves the community feed
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{posts: posts, logger: logger}
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePostInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	post, err := h.posts.Create(r.Context(), caller(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"post": post})
}

// List handles GET /api/posts?official=true&category=&page=&limit=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.posts.List(r.Context(), service.ListPostsInput{
		OfficialOnly: q.Get("official") == "true",
		Category:     domain.PostCategory(q.Get("category")),
		Page:         queryInt(r, "page", 1),
		Limit:        queryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"posts": posts})
}

// Like handles PATCH /api/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.posts.ToggleLike(r.Context(), caller(r).ID, r.PathValue("id")))
}

// Pin handles PATCH /api/posts/{id}/pin
func (h *PostHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.posts.Pin(r.Context(), caller(r).ID, r.PathValue("id")))
}

// Delete handles DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), caller(r), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Post deleted"})
}

// Profile handles GET /api/users/{id}/profile
func (h *PostHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, posts, err := h.posts.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user, "posts": posts})
}

func (h *PostHandler) respond(w http.ResponseWriter, r *http.Request) func(*domain.Post, error) {
	return func(post *domain.Post, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"post": post})
	}
}

// CommentHandler serves post comments
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentHandler{comments: comments, logger: logger}
}

// AddCommentRequest is the body of POST /api/comments/{postId}
type AddCommentRequest struct {
	Text string `json:"text"`
}

// Add handles POST /api/comments/{postId}
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	c, err := h.comments.Add(r.Context(), caller(r), r.PathValue("postId"), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"comment": c})
}

// List handles GET /api/comments/{postId}
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), r.PathValue("postId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"comments": comments})
}

// PageHandler serves community pages
type PageHandler struct {
	pages  *service.PageService
	logger *slog.Logger
}

func NewPageHandler(pages *service.PageService, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{pages: pages, logger: logger}
}

// Create handles POST /api/pages
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePageInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.pages.Create(r.Context(), caller(r).ID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"page": page})
}

// List handles GET /api/pages
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"pages": pages})
}

// NotificationHandler serves the caller's notifications
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), caller(r).ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"notifications": list})
}

// MarkRead handles PATCH /api/notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.notifications.MarkAllRead(r.Context(), caller(r).ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}
