package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// PostgresInviteRepository implements domain.InviteRepository using PostgreSQL
type PostgresInviteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresInviteRepository(db *sql.DB, logger *slog.Logger) *PostgresInviteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInviteRepository{db: db, logger: logger}
}

func (r *PostgresInviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO invites (id, token, email, service_id, role_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, inv.ID, inv.Token, inv.Email, inv.ServiceID, inv.Role.ID, nullString(inv.CreatedBy), inv.ExpiresAt).Scan(&inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("invite token already exists")
		}
		r.logger.Error("failed to create invite",
			slog.String("email", inv.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

const inviteSelect = `
	SELECT i.id, i.token, i.email, i.service_id, COALESCE(i.created_by::text, ''),
	       i.used_at, COALESCE(i.used_by::text, ''), i.expires_at, i.created_at,
	       r.id, r.name, r.permissions, r.created_at
	FROM invites i
	JOIN roles r ON r.id = i.role_id
`

func scanInvite(row scanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var usedAt sql.NullTime
	role := &domain.Role{}
	var perms pq.StringArray
	err := row.Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.ServiceID, &inv.CreatedBy,
		&usedAt, &inv.UsedBy, &inv.ExpiresAt, &inv.CreatedAt,
		&role.ID, &role.Name, &perms, &role.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.UsedAt = timePtr(usedAt)
	role.Permissions = stringsOrEmpty(perms)
	inv.Role = role
	return inv, nil
}

func (r *PostgresInviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, inviteSelect+`WHERE i.token = $1`, token))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// Redeem claims the invite with a compare-and-set on used_at and creates the
// user in the same transaction. Concurrent redeemers block on the row lock
// and then fail the used_at IS NULL predicate.
func (r *PostgresInviteRepository) Redeem(ctx context.Context, token string, user *domain.User, at time.Time) (*domain.Invite, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redemption: %w", err)
	}
	defer tx.Rollback()

	var (
		inviteID string
		roleID   string
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE invites
		SET used_at = $2
		WHERE token = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING id, email, service_id, role_id
	`, token, at).Scan(&inviteID, &user.Email, &user.ServiceID, &roleID)
	if err != nil {
		if isNoRows(err) {
			return nil, r.classifyUnclaimable(ctx, tx, token, at)
		}
		return nil, fmt.Errorf("failed to claim invite: %w", err)
	}

	role, err := scanRole(tx.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, roleID))
	if err != nil {
		return nil, fmt.Errorf("failed to load invite role: %w", err)
	}
	user.Role = role

	if err := insertUser(ctx, tx, user); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE invites SET used_by = $2 WHERE id = $1`, inviteID, user.ID); err != nil {
		return nil, fmt.Errorf("failed to bind invite to user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	return r.GetByToken(ctx, token)
}

// classifyUnclaimable explains why the claim matched no row.
func (r *PostgresInviteRepository) classifyUnclaimable(ctx context.Context, tx *sql.Tx, token string, at time.Time) error {
	var (
		usedAt    sql.NullTime
		expiresAt time.Time
	)
	err := tx.QueryRowContext(ctx, `SELECT used_at, expires_at FROM invites WHERE token = $1`, token).Scan(&usedAt, &expiresAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrInviteNotFound
		}
		return fmt.Errorf("failed to inspect invite: %w", err)
	}
	inv := domain.Invite{UsedAt: timePtr(usedAt), ExpiresAt: expiresAt}
	if err := inv.Check(at); err != nil {
		return err
	}
	return domain.ErrInviteUsed
}
