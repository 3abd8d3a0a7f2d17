// Package memory implements the repositories in process memory. It backs
// development runs without a database and the service tests.
package memory

import (
	"sync"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// Store holds every table behind one lock so multi-entity operations such
// as invite redemption stay atomic.
type Store struct {
	mu sync.RWMutex

	roles    map[string]*domain.Role
	users    map[string]*domain.User
	invites  map[string]*domain.Invite
	messages []*domain.Message
	groups   map[string]*domain.Group
	polls    map[string]*domain.Poll
	audit    []*domain.AuditEntry
	welfare  []*domain.Transaction
	reports  map[string]*domain.Report

	posts         []*domain.Post
	comments      []*domain.Comment
	pages         []*domain.Page
	notifications []*domain.Notification
}

// New returns an empty store.
func New() *Store {
	return &Store{
		roles:   map[string]*domain.Role{},
		users:   map[string]*domain.User{},
		invites: map[string]*domain.Invite{},
		groups:  map[string]*domain.Group{},
		polls:   map[string]*domain.Poll{},
		reports: map[string]*domain.Report{},
	}
}

func (s *Store) Roles() *RoleRepository       { return &RoleRepository{s} }
func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Invites() *InviteRepository   { return &InviteRepository{s} }
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s} }
func (s *Store) Groups() *GroupRepository     { return &GroupRepository{s} }
func (s *Store) Polls() *PollRepository       { return &PollRepository{s} }
func (s *Store) Audit() *AuditRepository      { return &AuditRepository{s} }
func (s *Store) Welfare() *WelfareRepository  { return &WelfareRepository{s} }
func (s *Store) Reports() *ReportRepository   { return &ReportRepository{s} }
func (s *Store) Posts() *PostRepository       { return &PostRepository{s} }
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s} }
func (s *Store) Pages() *PageRepository       { return &PageRepository{s} }

func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s} }

var (
	_ domain.RoleRepository    = (*RoleRepository)(nil)
	_ domain.UserRepository    = (*UserRepository)(nil)
	_ domain.InviteRepository  = (*InviteRepository)(nil)
	_ domain.MessageRepository = (*MessageRepository)(nil)
	_ domain.GroupRepository   = (*GroupRepository)(nil)
	_ domain.PollRepository    = (*PollRepository)(nil)
	_ domain.AuditRepository   = (*AuditRepository)(nil)
	_ domain.WelfareRepository = (*WelfareRepository)(nil)
	_ domain.ReportRepository  = (*ReportRepository)(nil)
	_ domain.PostRepository    = (*PostRepository)(nil)
	_ domain.CommentRepository = (*CommentRepository)(nil)
	_ domain.PageRepository    = (*PageRepository)(nil)

	_ domain.NotificationRepository = (*NotificationRepository)(nil)
)

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
