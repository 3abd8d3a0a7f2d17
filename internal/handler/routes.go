package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/security/middleware"
)

// Handlers groups every endpoint handler for registration.
type Handlers struct {
	Auth     *AuthHandler
	Invites  *InviteHandler
	Users    *UserHandler
	Messages *MessageHandler
	Groups   *GroupHandler
	Welfare  *WelfareHandler
	Reports  *ReportHandler
	Uploads  *UploadHandler
	Audit    *AuditHandler
	Presence *PresenceHandler
	Health   *HealthHandler
	Gateway  *GatewayHandler

	Posts         *PostHandler
	Comments      *CommentHandler
	Pages         *PageHandler
	Notifications *NotificationHandler
}

var (
	admins     = []domain.RoleName{domain.RoleAdmin, domain.RoleSuperAdmin}
	moderators = []domain.RoleName{domain.RoleModerator, domain.RoleAdmin, domain.RoleSuperAdmin}
)

// Register mounts every route on mux. strict throttles the public
// credential endpoints and may be nil.
func Register(mux *http.ServeMux, h Handlers, guard *middleware.Guard, strict middleware.Middleware) {
	public := func(fn http.HandlerFunc) http.Handler { return fn }
	limited := func(fn http.HandlerFunc) http.Handler {
		if strict == nil {
			return fn
		}
		return strict(fn)
	}
	authed := func(fn http.HandlerFunc) http.Handler { return guard.Authenticated(fn) }
	role := func(roles []domain.RoleName, fn http.HandlerFunc) http.Handler {
		return guard.RequireRole(roles...)(fn)
	}

	mux.Handle("GET /healthz", public(h.Health.Health))
	mux.Handle("GET /readyz", public(h.Health.Ready))
	mux.Handle("GET /ws", h.Gateway)

	mux.Handle("POST /api/auth/login", limited(h.Auth.Login))
	mux.Handle("GET /api/auth/me", authed(h.Auth.Me))
	mux.Handle("POST /api/auth/change-password", authed(h.Auth.ChangePassword))

	mux.Handle("POST /api/invites", role(admins, h.Invites.Create))
	mux.Handle("GET /api/invites/{token}", public(h.Invites.Get))
	mux.Handle("POST /api/invites/{token}/register", limited(h.Invites.Register))
	mux.Handle("POST /api/requests/register", limited(h.Users.RequestAccess))

	mux.Handle("GET /api/users", role(admins, h.Users.List))
	mux.Handle("GET /api/users/pending", role(admins, h.Users.Pending))
	mux.Handle("POST /api/users", role(admins, h.Users.Create))
	mux.Handle("GET /api/users/{id}", authed(h.Users.Get))
	mux.Handle("PATCH /api/users/me", authed(h.Users.UpdateMe))
	mux.Handle("PATCH /api/users/{id}/approve", role(admins, h.Users.Approve))
	mux.Handle("PATCH /api/users/{id}/block", role(admins, h.Users.Block))
	mux.Handle("PATCH /api/users/{id}/unblock", role(admins, h.Users.Unblock))
	mux.Handle("PATCH /api/users/{id}/role", role(admins, h.Users.UpdateRole))
	mux.Handle("GET /api/users/{id}/profile", authed(h.Posts.Profile))

	mux.Handle("GET /api/posts", authed(h.Posts.List))
	mux.Handle("POST /api/posts", authed(h.Posts.Create))
	mux.Handle("PATCH /api/posts/{id}/like", authed(h.Posts.Like))
	mux.Handle("PATCH /api/posts/{id}/pin", role(admins, h.Posts.Pin))
	mux.Handle("DELETE /api/posts/{id}", authed(h.Posts.Delete))
	mux.Handle("GET /api/comments/{postId}", authed(h.Comments.List))
	mux.Handle("POST /api/comments/{postId}", authed(h.Comments.Add))
	mux.Handle("GET /api/pages", authed(h.Pages.List))
	mux.Handle("POST /api/pages", authed(h.Pages.Create))
	mux.Handle("GET /api/notifications", authed(h.Notifications.List))
	mux.Handle("PATCH /api/notifications/read", authed(h.Notifications.MarkRead))

	mux.Handle("POST /api/messages", authed(h.Messages.Send))
	mux.Handle("GET /api/messages", authed(h.Messages.History))
	mux.Handle("PATCH /api/messages/{id}/read", authed(h.Messages.MarkRead))

	mux.Handle("GET /api/groups", authed(h.Groups.List))
	mux.Handle("POST /api/groups", authed(h.Groups.Create))

	mux.Handle("POST /api/welfare/transactions", role(admins, h.Welfare.RecordTransaction))
	mux.Handle("GET /api/welfare/dashboard", authed(h.Welfare.Dashboard))
	mux.Handle("GET /api/welfare/polls", authed(h.Welfare.ListPolls))
	mux.Handle("POST /api/welfare/polls", role(admins, h.Welfare.CreatePoll))
	mux.Handle("GET /api/welfare/polls/{id}", authed(h.Welfare.GetPoll))
	mux.Handle("POST /api/welfare/polls/{id}/vote", authed(h.Welfare.Vote))
	mux.Handle("PATCH /api/welfare/polls/{id}/close", role(admins, h.Welfare.ClosePoll))

	mux.Handle("POST /api/reports", authed(h.Reports.Create))
	mux.Handle("GET /api/reports", role(moderators, h.Reports.List))
	mux.Handle("PATCH /api/reports/{id}", role(moderators, h.Reports.Update))

	mux.Handle("POST /api/uploads/presign", authed(h.Uploads.Presign))
	mux.Handle("GET /api/audit", role(admins, h.Audit.Recent))
	mux.Handle("GET /api/presence", authed(h.Presence.Online))
}
