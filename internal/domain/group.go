package domain

import (
	"context"
	"time"
)

// GroupType classifies chat groups.
type GroupType string

const (
	GroupStation      GroupType = "station"
	GroupCity         GroupType = "city"
	GroupWelfare      GroupType = "welfare"
	GroupAnnouncement GroupType = "announcement"
	GroupCustom       GroupType = "custom"
)

// Valid reports whether t is a known group type.
func (t GroupType) Valid() bool {
	switch t {
	case GroupStation, GroupCity, GroupWelfare, GroupAnnouncement, GroupCustom:
		return true
	}
	return false
}

// Group is a messaging room.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       GroupType `json:"type"`
	IsReadOnly bool      `json:"isReadOnly"`
	Members    []string  `json:"members"`
	Admins     []string  `json:"admins"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool { return contains(g.Members, userID) }

// HasAdmin reports whether userID administers the group.
func (g *Group) HasAdmin(userID string) bool { return contains(g.Admins, userID) }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// GroupRepository defines data access for groups
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	ListForMember(ctx context.Context, userID string) ([]*Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}
