package domain

import (
	"context"
	"time"
)

// Notification types.
const (
	NotifyPostCreated   = "post.created"
	NotifyPostCommented = "post.commented"
)

// Notification is an in-app notice addressed to one user.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	IsRead    bool              `json:"isRead"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NotificationRepository defines data access for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// ListForUser returns the newest notifications first.
	ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
