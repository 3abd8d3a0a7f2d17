package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// PostgresReportRepository implements domain.ReportRepository using PostgreSQL
type PostgresReportRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresReportRepository(db *sql.DB, logger *slog.Logger) *PostgresReportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReportRepository{db: db, logger: logger}
}

const reportColumns = `id, type, target_id, reason, reported_by, status, created_at`

func scanReport(row scanner) (*domain.Report, error) {
	rep := &domain.Report{}
	err := row.Scan(&rep.ID, &rep.Type, &rep.TargetID, &rep.Reason, &rep.ReportedBy, &rep.Status, &rep.CreatedAt)
	return rep, err
}

func (r *PostgresReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reports (id, type, target_id, reason, reported_by, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, rep.ID, string(rep.Type), rep.TargetID, rep.Reason, rep.ReportedBy, string(rep.Status)).Scan(&rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *PostgresReportRepository) List(ctx context.Context, status domain.ReportStatus) ([]*domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT 500
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *PostgresReportRepository) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus) (*domain.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, `
		UPDATE reports SET status = $2 WHERE id = $1
		RETURNING `+reportColumns, id, string(status)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return rep, nil
}
