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

// PostgresPostRepository implements domain.PostRepository using PostgreSQL
type PostgresPostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresPostRepository(db *sql.DB, logger *slog.Logger) *PostgresPostRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPostRepository{db: db, logger: logger}
}

const postSelect = `
	SELECT p.id, p.author_id::text, p.text, p.media, p.category, p.is_official_notice, p.is_pinned,
	       p.visibility, p.report_count, p.created_at, p.updated_at,
	       ARRAY(SELECT l.user_id::text FROM post_likes l WHERE l.post_id = p.id ORDER BY l.created_at)
	FROM posts p
`

func scanPost(row scanner) (*domain.Post, error) {
	p := &domain.Post{}
	var media []byte
	var likes pq.StringArray
	err := row.Scan(&p.ID, &p.AuthorID, &p.Text, &media, &p.Category, &p.IsOfficialNotice, &p.IsPinned,
		&p.Visibility, &p.ReportCount, &p.CreatedAt, &p.UpdatedAt, &likes)
	if err != nil {
		return nil, err
	}
	p.Media = []domain.Media{}
	if len(media) > 0 {
		if err := json.Unmarshal(media, &p.Media); err != nil {
			return nil, fmt.Errorf("failed to decode post media: %w", err)
		}
	}
	p.Likes = stringsOrEmpty(likes)
	return p, nil
}

func (r *PostgresPostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	media := p.Media
	if media == nil {
		media = []domain.Media{}
	}
	raw, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("failed to encode post media: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, author_id, text, media, category, is_official_notice, is_pinned, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.AuthorID, p.Text, raw, string(p.Category), p.IsOfficialNotice, p.IsPinned, string(p.Visibility),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return nil
}

func (r *PostgresPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, postSelect+`WHERE p.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (r *PostgresPostRepository) List(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	return r.query(ctx, postSelect+`
		WHERE ($1 = false OR p.is_official_notice) AND ($2 = '' OR p.category = $2)
		ORDER BY p.is_pinned DESC, p.created_at DESC
		LIMIT $3 OFFSET $4
	`, f.OfficialOnly, string(f.Category), f.Limit, f.Offset)
}

func (r *PostgresPostRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*domain.Post, error) {
	posts, err := r.query(ctx, postSelect+`
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2
	`, authorID, limit)
	if isMalformedID(err) {
		return []*domain.Post{}, nil
	}
	return posts, err
}

func (r *PostgresPostRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ToggleLike removes the like if it exists and adds it otherwise, in one
// statement.
func (r *PostgresPostRepository) ToggleLike(ctx context.Context, id, userID string) (*domain.Post, error) {
	_, err := r.db.ExecContext(ctx, `
		WITH removed AS (
			DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2 RETURNING 1
		)
		INSERT INTO post_likes (post_id, user_id)
		SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM removed)
		ON CONFLICT DO NOTHING
	`, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) || isMalformedID(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresPostRepository) Pin(ctx context.Context, id string) (*domain.Post, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET is_pinned = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to pin post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrPostNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the post. Likes and comments cascade.
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return domain.ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// PostgresCommentRepository implements domain.CommentRepository using PostgreSQL
type PostgresCommentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresCommentRepository(db *sql.DB, logger *slog.Logger) *PostgresCommentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentRepository{db: db, logger: logger}
}

func (r *PostgresCommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.PostID, c.AuthorID, c.Text).Scan(&c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) || isMalformedID(err) {
			return domain.ErrPostNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *PostgresCommentRepository) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id::text, author_id::text, text, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC
		LIMIT 500
	`, postID)
	if err != nil {
		if isMalformedID(err) {
			return []*domain.Comment{}, nil
		}
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c := &domain.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
