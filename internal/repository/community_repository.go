package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// PostgresPageRepository implements domain.PageRepository using PostgreSQL
type PostgresPageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresPageRepository(db *sql.DB, logger *slog.Logger) *PostgresPageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPageRepository{db: db, logger: logger}
}

func (r *PostgresPageRepository) Create(ctx context.Context, p *domain.Page) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO pages (id, name, type, description, cover_url, admins, moderators)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.Name, string(p.Type), p.Description, p.CoverURL, pq.Array(p.Admins), pq.Array(p.Moderators)).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

func (r *PostgresPageRepository) List(ctx context.Context) ([]*domain.Page, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, description, cover_url, admins::text[], moderators::text[], created_at
		FROM pages
		ORDER BY created_at DESC
		LIMIT 500
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []*domain.Page{}
	for rows.Next() {
		p := &domain.Page{}
		var admins, moderators pq.StringArray
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &p.CoverURL, &admins, &moderators, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Admins = stringsOrEmpty(admins)
		p.Moderators = stringsOrEmpty(moderators)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PostgresNotificationRepository implements domain.NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresNotificationRepository(db *sql.DB, logger *slog.Logger) *PostgresNotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationRepository{db: db, logger: logger}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	var data any
	if len(n.Data) > 0 {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to encode notification data: %w", err)
		}
		data = raw
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, type, message, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Message, data).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id::text, type, message, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []*domain.Notification{}
	for rows.Next() {
		n := &domain.Notification{}
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(n), nil
}
