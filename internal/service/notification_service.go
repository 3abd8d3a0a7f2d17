package service

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
)

const notificationListLimit = 100

// NotificationService stores in-app notifications and pushes them to the
// owner's live sessions
type NotificationService struct {
	notifications domain.NotificationRepository
	publisher     presence.Publisher
	logger        *slog.Logger
}

func NewNotificationService(notifications domain.NotificationRepository, publisher presence.Publisher, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{notifications: notifications, publisher: publisher, logger: logger}
}

// Notify stores a notification for userID. Failures are logged and do not
// fail the action that triggered them.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, message string, data map[string]string) {
	n := &domain.Notification{UserID: userID, Type: kind, Message: message, Data: data}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification",
			slog.String("user_id", userID),
			slog.String("type", kind),
			slog.String("error", err.Error()),
		)
		return
	}
	s.publisher.Publish(ctx, presence.NotificationEvent(n))
}

// List returns the newest notifications for userID.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, notificationListLimit)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}
