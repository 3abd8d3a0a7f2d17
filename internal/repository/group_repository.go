package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// PostgresGroupRepository implements domain.GroupRepository using PostgreSQL
type PostgresGroupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresGroupRepository(db *sql.DB, logger *slog.Logger) *PostgresGroupRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGroupRepository{db: db, logger: logger}
}

// Create inserts the group and its memberships. Admins are always members.
func (r *PostgresGroupRepository) Create(ctx context.Context, g *domain.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin group create: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (id, name, type, is_read_only, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, g.ID, g.Name, string(g.Type), g.IsReadOnly, nullString(g.CreatedBy)).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for _, member := range g.Members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, is_admin)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, g.ID, member, g.HasAdmin(member))
		if err != nil {
			if isForeignKeyViolation(err) || isMalformedID(err) {
				return domain.Invalid("unknown group member " + member)
			}
			return fmt.Errorf("failed to add group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group create: %w", err)
	}
	return nil
}

const groupSelect = `
	SELECT g.id, g.name, g.type, g.is_read_only, COALESCE(g.created_by::text, ''), g.created_at,
	       ARRAY(SELECT gm.user_id::text FROM group_members gm WHERE gm.group_id = g.id ORDER BY gm.user_id),
	       ARRAY(SELECT gm.user_id::text FROM group_members gm WHERE gm.group_id = g.id AND gm.is_admin ORDER BY gm.user_id)
	FROM groups g
`

func scanGroup(row scanner) (*domain.Group, error) {
	g := &domain.Group{}
	var members, admins pq.StringArray
	if err := row.Scan(&g.ID, &g.Name, &g.Type, &g.IsReadOnly, &g.CreatedBy, &g.CreatedAt, &members, &admins); err != nil {
		return nil, err
	}
	g.Members = stringsOrEmpty(members)
	g.Admins = stringsOrEmpty(admins)
	return g, nil
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, groupSelect+`WHERE g.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

func (r *PostgresGroupRepository) ListForMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, groupSelect+`
		WHERE EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = $1)
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*domain.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PostgresGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var found, member bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1),
		       EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&found, &member)
	if err != nil {
		if isMalformedID(err) {
			return false, domain.ErrGroupNotFound
		}
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !found {
		return false, domain.ErrGroupNotFound
	}
	return member, nil
}
