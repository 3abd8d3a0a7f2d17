package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

const maxGroupMembers = 500

// GroupService manages chat groups
type GroupService struct {
	groups domain.GroupRepository
	users  domain.UserRepository
	logger *slog.Logger
}

func NewGroupService(groups domain.GroupRepository, users domain.UserRepository, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{groups: groups, users: users, logger: logger}
}

// CreateGroupInput is the body of POST /api/groups
type CreateGroupInput struct {
	Name       string           `json:"name"`
	Type       domain.GroupType `json:"type"`
	Members    []string         `json:"members"`
	IsReadOnly bool             `json:"isReadOnly"`
}

// Create makes the creator the group's admin and a member.
func (s *GroupService) Create(ctx context.Context, creatorID string, in CreateGroupInput) (*domain.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("group name is required")
	}
	if in.Type == "" {
		in.Type = domain.GroupCustom
	}
	if !in.Type.Valid() {
		return nil, domain.Invalid("unknown group type " + string(in.Type))
	}

	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range in.Members {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members) > maxGroupMembers {
		return nil, domain.Invalid("too many group members")
	}
	for _, id := range members[1:] {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.Invalid("unknown group member " + id)
			}
			return nil, err
		}
	}

	g := &domain.Group{
		Name:       name,
		Type:       in.Type,
		IsReadOnly: in.IsReadOnly,
		Members:    members,
		Admins:     []string{creatorID},
		CreatedBy:  creatorID,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("group created",
		slog.String("group_id", g.ID),
		slog.String("type", string(g.Type)),
		slog.Int("members", len(g.Members)),
	)
	return g, nil
}

// ListForMember returns the groups userID belongs to.
func (s *GroupService) ListForMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	return s.groups.ListForMember(ctx, userID)
}

// IsMember reports membership; unknown groups yield ErrGroupNotFound.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return s.groups.IsMember(ctx, groupID, userID)
}
