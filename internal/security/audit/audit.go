package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/logger"
)

// Logger persists audit entries and mirrors them to the process log.
type Logger struct {
	repo   domain.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(repo domain.AuditRepository, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{repo: repo, logger: log, now: time.Now}
}

// LogAction records action by actorID on targetID. actorID may be empty for
// unauthenticated actions. Storage failures are logged and do not fail the
// caller: the action they describe has already happened.
func (al *Logger) LogAction(ctx context.Context, actorID, action, targetID string, metadata map[string]any) {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		CreatedAt: al.now().UTC(),
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			al.logger.Error("audit metadata not serializable",
				slog.String("action", action),
				slog.String("error", err.Error()),
			)
		} else {
			entry.Metadata = raw
		}
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.String("request_id", logger.RequestID(ctx)),
		slog.Time("timestamp", entry.CreatedAt),
	)

	if al.repo == nil {
		return
	}
	if err := al.repo.Append(ctx, entry); err != nil {
		al.logger.Error("failed to persist audit entry",
			slog.String("action", action),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}
}

// LogDenied writes a denied access attempt to the process log only.
func (al *Logger) LogDenied(ctx context.Context, userID, path, reason string) {
	al.logger.Warn("access denied",
		slog.String("user_id", userID),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.String("request_id", logger.RequestID(ctx)),
	)
}

// Recent returns the newest entries first.
func (al *Logger) Recent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if al.repo == nil {
		return []*domain.AuditEntry{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return al.repo.List(ctx, limit)
}
