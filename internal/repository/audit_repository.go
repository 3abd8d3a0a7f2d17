package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// PostgresAuditRepository appends audit entries to audit_logs
type PostgresAuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresAuditRepository(db *sql.DB, logger *slog.Logger) *PostgresAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditRepository{db: db, logger: logger}
}

func (r *PostgresAuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	var metadata any
	if len(e.Metadata) > 0 {
		metadata = []byte(e.Metadata)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, target_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, nullString(e.ActorID), e.Action, e.TargetID, metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, COALESCE(actor_id::text, ''), action, target_id, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		e := &domain.AuditEntry{}
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetID, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(metadata) > 0 {
			e.Metadata = metadata
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
