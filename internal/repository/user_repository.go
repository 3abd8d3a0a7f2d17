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

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

const userSelect = `
	SELECT u.id, u.full_name, COALESCE(u.email, ''), COALESCE(u.service_id, ''),
	       u.cnic_hash, u.cnic_last4, u.password_hash, u.status,
	       COALESCE(u.approved_by::text, ''), u.approved_at,
	       u.avatar_url, u.cover_url, u.phone, u.station, u.city,
	       u.is_super_admin, u.last_login_at, u.created_at, u.updated_at,
	       r.id, r.name, r.permissions, r.created_at
	FROM users u
	JOIN roles r ON r.id = u.role_id
`

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{Role: &domain.Role{}}
	var (
		approvedAt, lastLogin sql.NullTime
		perms                 pq.StringArray
	)
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.ServiceID,
		&u.CNICHash, &u.CNICLast4, &u.PasswordHash, &u.Status,
		&u.ApprovedBy, &approvedAt,
		&u.AvatarURL, &u.CoverURL, &u.Phone, &u.Station, &u.City,
		&u.IsSuperAdmin, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &u.Role.Name, &perms, &u.Role.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ApprovedAt = timePtr(approvedAt)
	u.LastLoginAt = timePtr(lastLogin)
	u.Role.Permissions = stringsOrEmpty(perms)
	return u, nil
}

func insertUser(ctx context.Context, q dbtx, user *domain.User) error {
	if user.Role == nil || user.Role.ID == "" {
		return fmt.Errorf("user role is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (id, full_name, email, service_id, cnic_hash, cnic_last4, password_hash,
		                   role_id, status, phone, station, city, is_super_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`,
		user.ID, user.FullName, nullString(user.Email), nullString(user.ServiceID),
		user.CNICHash, user.CNICLast4, user.PasswordHash,
		user.Role.ID, string(user.Status), user.Phone, user.Station, user.City, user.IsSuperAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Create inserts a user. Duplicate email or service id yields ErrUserExists.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := insertUser(ctx, r.db, user); err != nil {
		if err != domain.ErrUserExists {
			r.logger.Error("failed to create user",
				slog.String("email", user.Email),
				slog.String("error", err.Error()),
			)
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+where, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE u.id = $1`, id)
}

// GetByEmail retrieves a user by lower-cased email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.getOne(ctx, `WHERE u.email = $1`, email)
}

// GetByServiceID retrieves a user by service id
func (r *PostgresUserRepository) GetByServiceID(ctx context.Context, serviceID string) (*domain.User, error) {
	if serviceID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.getOne(ctx, `WHERE u.service_id = $1`, serviceID)
}

func (r *PostgresUserRepository) ExistsByEmailOrServiceID(ctx context.Context, email, serviceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR service_id = $2)
	`, nullString(email), nullString(serviceID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// List returns users newest first.
func (r *PostgresUserRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx, userSelect+`
		WHERE ($1 = '' OR u.status = $1)
		ORDER BY u.created_at DESC
		LIMIT $2
	`, string(filter.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateStatus applies the change only if the current status is in c.From.
func (r *PostgresUserRepository) UpdateStatus(ctx context.Context, c domain.StatusChange) (*domain.User, error) {
	from := make([]string, len(c.From))
	for i, s := range c.From {
		from[i] = string(s)
	}
	var approvedAt any
	if c.ApprovedBy != "" {
		approvedAt = c.At
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET status = $2,
		    approved_by = COALESCE($3, approved_by),
		    approved_at = COALESCE($4, approved_at),
		    updated_at = now()
		WHERE id = $1 AND status = ANY($5)
	`, c.UserID, string(c.To), nullString(c.ApprovedBy), approvedAt, pq.Array(from))
	if err != nil {
		if isMalformedID(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, c.UserID); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidStatusTransition
	}
	return r.GetByID(ctx, c.UserID)
}

func (r *PostgresUserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return domain.ErrUserNotFound
		}
		if isForeignKeyViolation(err) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) UpdateRole(ctx context.Context, userID, roleID string) (*domain.User, error) {
	err := r.exec(ctx, "update user role",
		`UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, userID, roleID)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, userID string, p domain.ProfileUpdate) (*domain.User, error) {
	err := r.exec(ctx, "update user profile", `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    station = COALESCE($3, station),
		    city = COALESCE($4, city),
		    phone = COALESCE($5, phone),
		    avatar_url = COALESCE($6, avatar_url),
		    cover_url = COALESCE($7, cover_url),
		    updated_at = now()
		WHERE id = $1
	`, userID, p.FullName, p.Station, p.City, p.Phone, p.AvatarURL, p.CoverURL)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
}

func (r *PostgresUserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.exec(ctx, "record login",
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
}
