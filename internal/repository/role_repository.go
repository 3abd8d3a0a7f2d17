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

// PostgresRoleRepository implements domain.RoleRepository using PostgreSQL
type PostgresRoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresRoleRepository(db *sql.DB, logger *slog.Logger) *PostgresRoleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoleRepository{db: db, logger: logger}
}

const roleColumns = `id, name, permissions, created_at`

func scanRole(row scanner) (*domain.Role, error) {
	role := &domain.Role{}
	var perms pq.StringArray
	if err := row.Scan(&role.ID, &role.Name, &perms, &role.CreatedAt); err != nil {
		return nil, err
	}
	role.Permissions = stringsOrEmpty(perms)
	return role, nil
}

func (r *PostgresRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

func (r *PostgresRoleRepository) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, string(name)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}
	return role, nil
}

func (r *PostgresRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []*domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Upsert inserts the role by name, or refreshes the permissions of an
// existing one, and fills in its id.
func (r *PostgresRoleRepository) Upsert(ctx context.Context, role *domain.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO roles (id, name, permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET permissions = EXCLUDED.permissions
		RETURNING id, created_at
	`, role.ID, string(role.Name), pq.Array(role.Permissions)).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		r.logger.Error("failed to upsert role",
			slog.String("name", string(role.Name)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to upsert role: %w", err)
	}
	return nil
}
