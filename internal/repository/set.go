package repository

import (
	"database/sql"
	"log/slog"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/repository/memory"
)

// Set is every repository the services need, backed by one store.
type Set struct {
	Roles    domain.RoleRepository
	Users    domain.UserRepository
	Invites  domain.InviteRepository
	Messages domain.MessageRepository
	Groups   domain.GroupRepository
	Polls    domain.PollRepository
	Audit    domain.AuditRepository
	Welfare  domain.WelfareRepository
	Reports  domain.ReportRepository
	Posts    domain.PostRepository
	Comments domain.CommentRepository
	Pages    domain.PageRepository

	Notifications domain.NotificationRepository
}

// NewPostgresSet builds the set on a postgres pool.
func NewPostgresSet(db *sql.DB, logger *slog.Logger) *Set {
	return &Set{
		Roles:    NewPostgresRoleRepository(db, logger),
		Users:    NewPostgresUserRepository(db, logger),
		Invites:  NewPostgresInviteRepository(db, logger),
		Messages: NewPostgresMessageRepository(db, logger),
		Groups:   NewPostgresGroupRepository(db, logger),
		Polls:    NewPostgresPollRepository(db, logger),
		Audit:    NewPostgresAuditRepository(db, logger),
		Welfare:  NewPostgresWelfareRepository(db, logger),
		Reports:  NewPostgresReportRepository(db, logger),
		Posts:    NewPostgresPostRepository(db, logger),
		Comments: NewPostgresCommentRepository(db, logger),
		Pages:    NewPostgresPageRepository(db, logger),

		Notifications: NewPostgresNotificationRepository(db, logger),
	}
}

// NewMemorySet builds the set on an in-process store.
func NewMemorySet(s *memory.Store) *Set {
	return &Set{
		Roles:    s.Roles(),
		Users:    s.Users(),
		Invites:  s.Invites(),
		Messages: s.Messages(),
		Groups:   s.Groups(),
		Polls:    s.Polls(),
		Audit:    s.Audit(),
		Welfare:  s.Welfare(),
		Reports:  s.Reports(),
		Posts:    s.Posts(),
		Comments: s.Comments(),
		Pages:    s.Pages(),

		Notifications: s.Notifications(),
	}
}
