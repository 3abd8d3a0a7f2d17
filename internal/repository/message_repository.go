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

// PostgresMessageRepository implements domain.MessageRepository using PostgreSQL
type PostgresMessageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresMessageRepository(db *sql.DB, logger *slog.Logger) *PostgresMessageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMessageRepository{db: db, logger: logger}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	var iv, ciphertext, tag any
	if m.Envelope != nil {
		iv, ciphertext, tag = m.Envelope.IV, m.Envelope.Ciphertext, m.Envelope.Tag
	}
	var attURL, attKind, attName any
	if m.Attachment != nil {
		attURL, attKind, attName = m.Attachment.URL, string(m.Attachment.Kind), nullString(m.Attachment.Name)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, group_id, iv, ciphertext, tag,
		                      attachment_url, attachment_kind, attachment_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, m.ID, m.SenderID, nullString(m.RecipientID), nullString(m.GroupID), iv, ciphertext, tag,
		attURL, attKind, attName).Scan(&m.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create message",
			slog.String("sender_id", m.SenderID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

const messageColumns = `
	m.id, m.sender_id, COALESCE(m.recipient_id::text, ''), COALESCE(m.group_id::text, ''),
	m.iv, m.ciphertext, m.tag, m.attachment_url, m.attachment_kind, m.attachment_name, m.created_at,
	ARRAY(SELECT mr.reader_id::text FROM message_reads mr WHERE mr.message_id = m.id ORDER BY mr.read_at) AS read_by
`

func scanMessage(row scanner) (*domain.Message, error) {
	m := &domain.Message{}
	var (
		iv, ciphertext, tag      sql.NullString
		attURL, attKind, attName sql.NullString
		readBy                   pq.StringArray
	)
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.GroupID,
		&iv, &ciphertext, &tag, &attURL, &attKind, &attName, &m.CreatedAt, &readBy)
	if err != nil {
		return nil, err
	}
	if iv.Valid {
		m.Envelope = &domain.Envelope{IV: iv.String, Ciphertext: ciphertext.String, Tag: tag.String}
	}
	if attURL.Valid {
		m.Attachment = &domain.Attachment{URL: attURL.String, Kind: domain.AttachmentKind(attKind.String), Name: attName.String}
	}
	m.ReadBy = stringsOrEmpty(readBy)
	return m, nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages m WHERE m.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// recent selects the newest limit rows matching where, returned oldest first.
func (r *PostgresMessageRepository) recent(ctx context.Context, where string, args ...any) ([]*domain.Message, error) {
	query := `
		SELECT * FROM (
			SELECT ` + messageColumns + `
			FROM messages m
			WHERE ` + where + `
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $` + fmt.Sprint(len(args)) + `
		) recent
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return []*domain.Message{}, nil
		}
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PostgresMessageRepository) ListDirect(ctx context.Context, userA, userB string, limit int) ([]*domain.Message, error) {
	return r.recent(ctx,
		`(m.sender_id = $1 AND m.recipient_id = $2) OR (m.sender_id = $2 AND m.recipient_id = $1)`,
		userA, userB, limit)
}

func (r *PostgresMessageRepository) ListGroup(ctx context.Context, groupID string, limit int) ([]*domain.Message, error) {
	return r.recent(ctx, `m.group_id = $1`, groupID, limit)
}

func (r *PostgresMessageRepository) HasConversation(ctx context.Context, userA, userB string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messages
			WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		)
	`, userA, userB).Scan(&exists)
	if err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check conversation: %w", err)
	}
	return exists, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, messageID, readerID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, reader_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, messageID, readerID)
	if err != nil {
		if isForeignKeyViolation(err) || isMalformedID(err) {
			return domain.ErrMessageNotFound
		}
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}
