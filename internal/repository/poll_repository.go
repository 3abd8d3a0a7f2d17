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

// PostgresPollRepository implements domain.PollRepository using PostgreSQL
type PostgresPollRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresPollRepository(db *sql.DB, logger *slog.Logger) *PostgresPollRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPollRepository{db: db, logger: logger}
}

func (r *PostgresPollRepository) Create(ctx context.Context, p *domain.Poll) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin poll create: %w", err)
	}
	defer tx.Rollback()

	var closesAt any
	if p.ClosesAt != nil {
		closesAt = *p.ClosesAt
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO welfare_polls (id, title, description, status, created_by, closes_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, p.ID, p.Title, p.Description, string(p.Status), nullString(p.CreatedBy), closesAt).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}

	for i, opt := range p.Options {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO welfare_poll_options (poll_id, idx, label) VALUES ($1, $2, $3)
		`, p.ID, i, opt.Label); err != nil {
			return fmt.Errorf("failed to create poll option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit poll create: %w", err)
	}
	return nil
}

const pollColumns = `id, title, description, status, COALESCE(created_by::text, ''), closes_at, created_at`

func scanPoll(row scanner) (*domain.Poll, error) {
	p := &domain.Poll{}
	var closesAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedBy, &closesAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ClosesAt = timePtr(closesAt)
	return p, nil
}

// loadOptions fills the options of p with their voters.
func (r *PostgresPollRepository) loadOptions(ctx context.Context, p *domain.Poll) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.label,
		       ARRAY(SELECT v.voter_id::text FROM welfare_poll_votes v
		             WHERE v.poll_id = o.poll_id AND v.option_idx = o.idx
		             ORDER BY v.created_at)
		FROM welfare_poll_options o
		WHERE o.poll_id = $1
		ORDER BY o.idx
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load poll options: %w", err)
	}
	defer rows.Close()

	p.Options = []domain.PollOption{}
	for rows.Next() {
		var (
			opt    domain.PollOption
			voters pq.StringArray
		)
		if err := rows.Scan(&opt.Label, &voters); err != nil {
			return fmt.Errorf("failed to scan poll option: %w", err)
		}
		opt.Voters = stringsOrEmpty(voters)
		p.Options = append(p.Options, opt)
	}
	return rows.Err()
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	p, err := scanPoll(r.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM welfare_polls WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if err := r.loadOptions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresPollRepository) List(ctx context.Context) ([]*domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM welfare_polls ORDER BY created_at DESC LIMIT 200`)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	polls := []*domain.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, p := range polls {
		if err := r.loadOptions(ctx, p); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// AddVote inserts the vote only while the poll is open and the option
// exists. The unique (poll_id, voter_id) constraint settles concurrent
// double votes.
func (r *PostgresPollRepository) AddVote(ctx context.Context, pollID string, option int, voterID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO welfare_poll_votes (poll_id, option_idx, voter_id, created_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM welfare_polls p
			JOIN welfare_poll_options o ON o.poll_id = p.id AND o.idx = $2
			WHERE p.id = $1 AND p.status = 'open'
		)
	`, pollID, option, voterID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		if isMalformedID(err) {
			return domain.ErrPollNotFound
		}
		return fmt.Errorf("failed to record vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	if n == 1 {
		return nil
	}

	var (
		status    string
		hasOption bool
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT p.status, EXISTS (
			SELECT 1 FROM welfare_poll_options o WHERE o.poll_id = p.id AND o.idx = $2
		)
		FROM welfare_polls p WHERE p.id = $1
	`, pollID, option).Scan(&status, &hasOption)
	switch {
	case isNoRows(err):
		return domain.ErrPollNotFound
	case err != nil:
		return fmt.Errorf("failed to inspect poll: %w", err)
	case !hasOption:
		return domain.ErrOptionNotFound
	case domain.PollStatus(status) == domain.PollClosed:
		return domain.ErrPollClosed
	default:
		return fmt.Errorf("vote for poll %s was not recorded", pollID)
	}
}

func (r *PostgresPollRepository) Close(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE welfare_polls SET status = 'closed' WHERE id = $1 AND status = 'open'`, id)
	if err != nil {
		if isMalformedID(err) {
			return false, domain.ErrPollNotFound
		}
		return false, fmt.Errorf("failed to close poll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to close poll: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM welfare_polls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to inspect poll: %w", err)
	}
	if !exists {
		return false, domain.ErrPollNotFound
	}
	return false, nil
}

func (r *PostgresPollRepository) CloseDue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE welfare_polls
		SET status = 'closed'
		WHERE status = 'open' AND closes_at IS NOT NULL AND closes_at <= $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close due polls: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan poll id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
