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

// PostgresWelfareRepository implements domain.WelfareRepository using PostgreSQL
type PostgresWelfareRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresWelfareRepository(db *sql.DB, logger *slog.Logger) *PostgresWelfareRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWelfareRepository{db: db, logger: logger}
}

func (r *PostgresWelfareRepository) Create(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO welfare_transactions (id, type, amount, category, reason, beneficiary_name,
		                                  beneficiary_anonymized, proof_docs, created_by, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, string(t.Type), t.Amount, t.Category, t.Reason, t.BeneficiaryName,
		t.BeneficiaryAnonymized, pq.Array(t.ProofDocs), nullString(t.CreatedBy), t.TransactionDate).Scan(&t.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create welfare transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create welfare transaction: %w", err)
	}
	return nil
}

// ListBetween returns transactions dated in [from, to), newest first.
func (r *PostgresWelfareRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, amount, category, reason, beneficiary_name, beneficiary_anonymized,
		       proof_docs, COALESCE(created_by::text, ''), transaction_date, created_at
		FROM welfare_transactions
		WHERE ($1::timestamptz IS NULL OR transaction_date >= $1)
		  AND ($2::timestamptz IS NULL OR transaction_date < $2)
		ORDER BY transaction_date DESC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list welfare transactions: %w", err)
	}
	defer rows.Close()

	txs := []*domain.Transaction{}
	for rows.Next() {
		t := &domain.Transaction{}
		var docs pq.StringArray
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.Category, &t.Reason, &t.BeneficiaryName,
			&t.BeneficiaryAnonymized, &docs, &t.CreatedBy, &t.TransactionDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan welfare transaction: %w", err)
		}
		t.ProofDocs = stringsOrEmpty(docs)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
