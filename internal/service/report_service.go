package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
)

// ReportService handles moderation reports
type ReportService struct {
	reports domain.ReportRepository
	audit   *audit.Logger
	logger  *slog.Logger
}

func NewReportService(reports domain.ReportRepository, auditLog *audit.Logger, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{reports: reports, audit: auditLog, logger: logger}
}

// CreateReportInput is the body of POST /api/reports
type CreateReportInput struct {
	Type     domain.ReportType `json:"type"`
	TargetID string            `json:"targetId"`
	Reason   string            `json:"reason"`
}

func validReportStatus(s domain.ReportStatus) bool {
	return s == domain.ReportOpen || s == domain.ReportReviewed || s == domain.ReportActioned
}

func (s *ReportService) Create(ctx context.Context, reporterID string, in CreateReportInput) (*domain.Report, error) {
	switch in.Type {
	case domain.ReportPost, domain.ReportComment, domain.ReportMessage:
	default:
		return nil, domain.Invalid("type must be post, comment or message")
	}
	if err := missing(field("target id", in.TargetID), field("reason", in.Reason)); err != nil {
		return nil, err
	}
	r := &domain.Report{
		Type:       in.Type,
		TargetID:   strings.TrimSpace(in.TargetID),
		Reason:     strings.TrimSpace(in.Reason),
		ReportedBy: reporterID,
		Status:     domain.ReportOpen,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, reporterID, domain.ActionReportCreate, r.ID, map[string]any{"type": string(r.Type)})
	return r, nil
}

// List returns reports, newest first. An empty status lists all.
func (s *ReportService) List(ctx context.Context, status domain.ReportStatus) ([]*domain.Report, error) {
	if status != "" && !validReportStatus(status) {
		return nil, domain.Invalid("unknown report status " + string(status))
	}
	return s.reports.List(ctx, status)
}

func (s *ReportService) UpdateStatus(ctx context.Context, actorID, id string, status domain.ReportStatus) (*domain.Report, error) {
	if !validReportStatus(status) {
		return nil, domain.Invalid("unknown report status " + string(status))
	}
	r, err := s.reports.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, domain.ActionReportUpdate, id, map[string]any{"status": string(status)})
	return r, nil
}
